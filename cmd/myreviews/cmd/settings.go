package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	settingsServer string
	settingsPort   int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change sync settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		changed := false

		if cmd.Flags().Changed("server") || cmd.Flags().Changed("port") {
			host := settingsServer
			if host == "" {
				host = prefs.ServerHost()
			}
			port := settingsPort
			if !cmd.Flags().Changed("port") {
				port = prefs.ServerPort()
			}
			if err := prefs.SetServer(host, port); err != nil {
				return err
			}
			changed = true
		}

		for flag, setter := range map[string]func(bool) error{
			"enable-sync":      prefs.SetSyncEnabled,
			"enable-auto-sync": prefs.SetAutoSyncEnabled,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetBool(flag)
				if err := setter(v); err != nil {
					return err
				}
				changed = true
			}
		}

		if changed {
			fmt.Println("Settings saved.")
		}

		fmt.Printf("Sync enabled:      %v\n", prefs.SyncEnabled())
		fmt.Printf("Auto-sync enabled: %v\n", prefs.AutoSyncEnabled())
		if prefs.HasValidServerConfig() {
			fmt.Printf("Server:            %s\n", prefs.ServerBaseURL())
		} else {
			fmt.Println("Server:            not configured")
		}
		return nil
	},
}

func init() {
	settingsCmd.Flags().StringVar(&settingsServer, "server", "", "sync server host")
	settingsCmd.Flags().IntVar(&settingsPort, "port", 3000, "sync server port")
	settingsCmd.Flags().Bool("enable-sync", false, "turn syncing on or off")
	settingsCmd.Flags().Bool("enable-auto-sync", false, "sync automatically after each change")
	rootCmd.AddCommand(settingsCmd)
}
