// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render turns materialized results into HTML table fragments.
package render

import (
	"html"
	"strings"
	"time"

	"querydesk/cli/internal/value"
)

// QueryResultHTML is the display projection of one result.
type QueryResultHTML struct {
	HeadHTML       string  `json:"head_html"`
	BodyHTML       string  `json:"body_html"`
	PaginationHTML string  `json:"pagination_html"`
	Count          int     `json:"count"`
	TotalRows      int     `json:"total_rows"`
	QueryTime      float64 `json:"query_time"`
}

// Table renders the header row and the body rows. The output depends only on
// its inputs. Text is HTML-escaped and NULL gets its own cell class.
func Table(columns []string, rows [][]value.Value) (head, body string) {
	var hb strings.Builder
	hb.WriteString("<tr>")
	for _, c := range columns {
		hb.WriteString("<th>")
		hb.WriteString(html.EscapeString(c))
		hb.WriteString("</th>")
	}
	hb.WriteString("</tr>")

	var bb strings.Builder
	for _, row := range rows {
		bb.WriteString("<tr>")
		for _, v := range row {
			if v.IsNull() {
				bb.WriteString(`<td class="null">NULL</td>`)
				continue
			}
			bb.WriteString("<td>")
			bb.WriteString(html.EscapeString(v.String()))
			bb.WriteString("</td>")
		}
		bb.WriteString("</tr>")
	}

	return hb.String(), bb.String()
}

// NewQueryResultHTML renders a result and records how long the whole request took.
func NewQueryResultHTML(columns []string, rows [][]value.Value, elapsed time.Duration) *QueryResultHTML {
	head, body := Table(columns, rows)
	return &QueryResultHTML{
		HeadHTML:  head,
		BodyHTML:  body,
		Count:     len(rows),
		TotalRows: len(rows),
		QueryTime: float64(elapsed) / float64(time.Millisecond),
	}
}
