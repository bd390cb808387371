package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newUserName string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show or rename the local user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := store.Users.EnsureDefaultUser()
		if err != nil {
			return err
		}

		if newUserName != "" {
			if err := store.Users.UpdateUserName(user.UserID, newUserName); err != nil {
				return err
			}
			fmt.Printf("Renamed to %q. The new name reaches the server on the next sync.\n", newUserName)
			return nil
		}

		fmt.Printf("User:    %s\n", user.UserName)
		fmt.Printf("ID:      %s\n", user.UserID)
		fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	userCmd.Flags().StringVar(&newUserName, "name", "", "set a new display name")
	rootCmd.AddCommand(userCmd)
}
