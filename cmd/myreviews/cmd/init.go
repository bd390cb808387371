package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local database and user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := store.Users.EnsureDefaultUser()
		if err != nil {
			return err
		}
		fmt.Printf("Initialized %s\n", dataDir)
		fmt.Printf("Local user %q (%s)\n", user.UserName, user.UserID)
		fmt.Println("Rename with 'myreviews user --name YOUR_NAME'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
