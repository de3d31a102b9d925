// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/sqlexec"
)

var (
	statusRemote  string
	statusSendDSN bool
)

// statusCmd prints the server counters as a table.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server counters for the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		be, closeFn, err := openBackend(ctx, statusRemote, statusSendDSN)
		if err != nil {
			return presentFailure(statusRemote, err)
		}
		defer closeFn()

		st, err := be.ServerStatus(ctx)
		if err != nil {
			return presentFailure(statusRemote, err)
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(statusTable(st)).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func statusTable(st *sqlexec.ServerStatus) pterm.TableData {
	return pterm.TableData{
		{"Counter", "Value"},
		{"Connections", strconv.FormatUint(st.Connections, 10)},
		{"Bytes received", strconv.FormatUint(st.BytesReceived, 10)},
		{"Bytes sent", strconv.FormatUint(st.BytesSent, 10)},
		{"Queries", strconv.FormatUint(st.Queries, 10)},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusRemote, "remote", "", "Address of a running 'querydesk serve' instance")
	statusCmd.Flags().BoolVar(&statusSendDSN, "send-dsn", false, "Send the local DSN to a non-loopback --remote server that is not connected")
}
