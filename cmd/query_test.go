// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"
	"testing"

	"querydesk/cli/internal/sqlexec"
	"querydesk/cli/internal/value"
)

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		name string
		resp sqlexec.QueryResponse
		want string
	}{
		{
			name: "result set",
			resp: sqlexec.QueryResponse{
				Columns:    []string{"x"},
				Rows:       [][]value.Value{{value.Int(1)}, {value.Int(2)}},
				DurationMS: 12.3,
			},
			want: "2 rows (12ms)",
		},
		{
			name: "single row",
			resp: sqlexec.QueryResponse{
				Columns:    []string{"x"},
				Rows:       [][]value.Value{{value.Int(1)}},
				DurationMS: 0.5,
			},
			want: "1 row (0.50ms)",
		},
		{
			name: "empty result set",
			resp: sqlexec.QueryResponse{Columns: []string{"x"}, Rows: [][]value.Value{}, DurationMS: 2},
			want: "0 rows (2ms)",
		},
		{
			name: "insert",
			resp: sqlexec.QueryResponse{AffectedRows: 1, LastInsertID: 42, DurationMS: 1500},
			want: "Query OK, 1 row affected, last insert id 42 (1.50s)",
		},
		{
			name: "update without insert id",
			resp: sqlexec.QueryResponse{AffectedRows: 3, DurationMS: 4},
			want: "Query OK, 3 rows affected (4ms)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaryLine(&tt.resp); got != tt.want {
				t.Errorf("summaryLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableData(t *testing.T) {
	resp := &sqlexec.QueryResponse{
		Columns: []string{"id", "name"},
		Rows: [][]value.Value{
			{value.Int(1), value.Null},
			{value.Int(2), value.Text("b")},
		},
	}

	data := tableData(resp)
	if len(data) != 3 {
		t.Fatalf("rows = %d, want 3", len(data))
	}
	if strings.Join(data[0], ",") != "id,name" {
		t.Errorf("header = %v", data[0])
	}
	if data[1][1] != "NULL" || data[2][1] != "b" {
		t.Errorf("cells = %v", data[1:])
	}
}

func TestReadSQL(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "args joined", args: []string{"SELECT", "1"}, want: "SELECT 1"},
		{name: "stdin", stdin: "SELECT 2;\n", want: "SELECT 2;"},
		{name: "args win over stdin", args: []string{"SELECT 3"}, stdin: "SELECT 4", want: "SELECT 3"},
		{name: "nothing", stdin: "  \n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readSQL(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
