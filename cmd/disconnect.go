// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"querydesk/cli/internal/keychain"
)

var disconnectAll bool

// disconnectCmd removes saved credentials from the OS keychain.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the saved database connection",
	Long: `The disconnect command removes the saved DSN from the OS keychain.
With --all it also removes the RPC shared secret used by 'querydesk serve'.
Environment variables such as QUERYDESK_DSN are not affected.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system")
			return reported(err)
		}

		if disconnectAll {
			err = km.ClearAll()
		} else {
			err = km.ClearDB()
		}
		if err != nil {
			return err
		}

		if disconnectAll {
			fmt.Println("✅ Saved connection and RPC secret have been removed")
		} else {
			fmt.Println("✅ Saved connection has been removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
	disconnectCmd.Flags().BoolVar(&disconnectAll, "all", false, "Also remove the RPC shared secret")
}
