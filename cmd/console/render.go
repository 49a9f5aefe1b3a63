package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/JaimeStill/console/pkg/table"
)

func render[R any](out io.Writer, kind *table.Kind[R], page table.Page[R]) {
	w := tablewriter.NewWriter(out)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)

	header := make([]string, len(kind.Columns))
	for i, col := range kind.Columns {
		header[i] = col.Header
		if page.Sort != nil && page.Sort.Field == col.Field {
			header[i] += sortArrow(page.Sort.Descending)
		}
	}
	w.SetHeader(header)

	for _, rec := range page.Records {
		row := make([]string, len(kind.Columns))
		for i, col := range kind.Columns {
			row[i] = col.Text(rec)
		}
		w.Append(row)
	}
	w.Render()

	if page.Total == 0 {
		fmt.Fprintf(out, "No %s found.\n", kind.Name)
		return
	}
	fmt.Fprintf(out, "Page %d of %d, %d total\n", page.PageIndex+1, page.PageCount, page.Total)
}

func sortArrow(desc bool) string {
	if desc {
		return " 🔽"
	}
	return " 🔼"
}
