// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/export"
	"querydesk/cli/internal/logging"
	"querydesk/cli/internal/sqlexec"
	"querydesk/cli/internal/terminal"
)

var (
	queryDB         string
	queryRollback   bool
	queryNoFKChecks bool
	queryHTML       bool
	queryOutput     string
	queryFormat     string
	queryRemote     string
	querySendDSN    bool
)

// queryCmd runs one SQL statement and prints its result.
var queryCmd = &cobra.Command{
	Use:   "query [SQL]",
	Short: "Execute SQL against the configured database",
	Long: `The query command executes SQL against the saved connection, or against a running
'querydesk serve' instance when --remote is given. SQL is taken from the arguments
or, when none are given, from stdin.

Only the first result set of a statement is returned. With --rollback the statement
runs inside a transaction that is always rolled back; with --no-fk-checks foreign
key enforcement is turned off for the call and restored afterwards.`,
	Example: `  querydesk query "SELECT id, name FROM users LIMIT 10" --db shop
  echo "DELETE FROM carts" | querydesk query --rollback
  querydesk query "SELECT * FROM orders" --output orders.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readSQL(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		be, closeFn, err := openBackend(ctx, queryRemote, querySendDSN)
		if err != nil {
			return presentFailure(queryRemote, err)
		}
		defer closeFn()

		if queryHTML {
			res, err := be.ExecuteQueryHTML(ctx, sql, queryDB)
			if err != nil {
				return presentFailure(queryRemote, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		results, err := be.ExecuteQuery(ctx, sql, queryDB, &sqlexec.Options{
			Rollback:        queryRollback,
			DisableFKChecks: queryNoFKChecks,
		})
		if err != nil {
			return presentFailure(queryRemote, err)
		}

		for i := range results {
			resp := &results[i]
			if queryOutput != "" {
				if err := export.ToFile(queryOutput, queryFormat, resp); err != nil {
					return err
				}
				pterm.Success.Printfln("Wrote %s to %s", pluralRows(len(resp.Rows)), queryOutput)
				continue
			}
			if err := printResult(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
		}
		if queryRollback {
			pterm.Info.Println("Changes were rolled back")
		}
		return nil
	},
}

// readSQL joins args, or reads stdin when there are none.
func readSQL(args []string, stdin io.Reader) (string, error) {
	sql := strings.TrimSpace(strings.Join(args, " "))
	if sql == "" && (stdin != os.Stdin || !terminal.IsInteractive()) {
		var err error
		if sql, err = terminal.ReadAll(stdin); err != nil {
			return "", fmt.Errorf("read SQL from stdin: %w", err)
		}
	}
	if sql == "" {
		return "", errors.New("no SQL given; pass it as an argument or pipe it on stdin")
	}
	return sql, nil
}

// presentFailure prints err for the user and marks it as shown. remote is
// the query server address, or "" for an in-process engine.
func presentFailure(remote string, err error) error {
	if remote != "" && logging.IsRemoteTransportError(err) {
		fmt.Fprintln(os.Stderr, logging.FormatRemoteError(remote, err))
		return reported(err)
	}
	fmt.Fprintln(os.Stderr, pterm.Error.Sprint(logging.Mask(err.Error())))
	return reported(err)
}

// printResult renders a result grid, if any, followed by a summary line.
func printResult(w io.Writer, resp *sqlexec.QueryResponse) error {
	if len(resp.Columns) > 0 {
		out, err := pterm.DefaultTable.WithHasHeader().WithData(tableData(resp)).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	}
	fmt.Fprintln(w, pterm.NewStyle(pterm.FgGray).Sprint(summaryLine(resp)))
	return nil
}

// tableData is the header row followed by one display row per result row.
func tableData(resp *sqlexec.QueryResponse) pterm.TableData {
	data := make(pterm.TableData, 0, len(resp.Rows)+1)
	data = append(data, resp.Columns)
	for _, row := range resp.Rows {
		cells := make([]string, len(resp.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i].String()
			}
		}
		data = append(data, cells)
	}
	return data
}

// summaryLine describes the outcome: row count for result sets, affected
// rows and last insert id for commands.
func summaryLine(resp *sqlexec.QueryResponse) string {
	elapsed := formatDuration(resp.DurationMS)
	if len(resp.Columns) > 0 {
		return fmt.Sprintf("%s (%s)", pluralRows(len(resp.Rows)), elapsed)
	}

	s := fmt.Sprintf("Query OK, %d %s affected", resp.AffectedRows, plural(resp.AffectedRows, "row", "rows"))
	if resp.LastInsertID != 0 {
		s += fmt.Sprintf(", last insert id %d", resp.LastInsertID)
	}
	return s + " (" + elapsed + ")"
}

func pluralRows(n int) string {
	return fmt.Sprintf("%d %s", n, plural(uint64(n), "row", "rows"))
}

func plural(n uint64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatDuration renders milliseconds compactly: sub-millisecond values keep
// two decimals, longer ones switch to seconds.
func formatDuration(ms float64) string {
	d := time.Duration(ms * float64(time.Millisecond))
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fms", ms)
	case d < time.Second:
		return fmt.Sprintf("%.0fms", ms)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryDB, "db", "", "Database (MySQL) or schema (PostgreSQL) to select first")
	queryCmd.Flags().BoolVar(&queryRollback, "rollback", false, "Run inside a transaction that is always rolled back")
	queryCmd.Flags().BoolVar(&queryNoFKChecks, "no-fk-checks", false, "Disable foreign key checks for this statement")
	queryCmd.Flags().BoolVar(&queryHTML, "html", false, "Print the result as rendered HTML table fragments (JSON)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "Write the result to a file instead of the terminal")
	queryCmd.Flags().StringVar(&queryFormat, "format", "", "Output file format: csv, json, xlsx (default: from file extension)")
	queryCmd.Flags().StringVar(&queryRemote, "remote", "", "Address of a running 'querydesk serve' instance")
	queryCmd.Flags().BoolVar(&querySendDSN, "send-dsn", false, "Send the local DSN to a non-loopback --remote server that is not connected")
	queryCmd.MarkFlagsMutuallyExclusive("html", "output")
}
