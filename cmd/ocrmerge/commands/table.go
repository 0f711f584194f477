package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// printSummary renders the run summary as a table on terminals and as
// plain lines otherwise.
func printSummary(w io.Writer, sum *summary.Summary) {
	if !isTerminal(w) {
		printPlain(w, sum)
		return
	}
	fmt.Fprintln(w, renderSummary(sum))
}

func renderSummary(sum *summary.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s run %s", sum.Mode, sum.RunID))

	showEngine := false
	for _, it := range sum.Items {
		if it.Engine != "" {
			showEngine = true
			break
		}
	}

	header := table.Row{"ID"}
	if showEngine {
		header = append(header, "Engine")
	}
	header = append(header, "Outcome", "Detail")
	tw.AppendHeader(header)

	for _, it := range sum.Items {
		row := table.Row{it.ID}
		if showEngine {
			row = append(row, it.Engine)
		}
		row = append(row, string(it.Outcome), detail(it))
		tw.AppendRow(row)
	}

	footer := table.Row{"Total"}
	if showEngine {
		footer = append(footer, "")
	}
	footer = append(footer, strconv.Itoa(len(sum.Items)),
		fmt.Sprintf("%d ok / %d failed", sum.Succeeded(), sum.Failed()))
	tw.AppendFooter(footer)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Detail", WidthMax: 60},
		{Name: "ID", AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func detail(it summary.ItemOutcome) string {
	switch {
	case it.Error != "":
		return it.Error
	case it.Changes > 0:
		return fmt.Sprintf("%d changes", it.Changes)
	case len(it.Artifacts) > 0:
		return strings.Join(it.Artifacts, ", ")
	default:
		return ""
	}
}

func printPlain(w io.Writer, sum *summary.Summary) {
	for _, it := range sum.Items {
		fields := []string{it.ID}
		if it.Engine != "" {
			fields = append(fields, it.Engine)
		}
		fields = append(fields, string(it.Outcome))
		if d := detail(it); d != "" {
			fields = append(fields, d)
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}
	fmt.Fprintf(w, "%s run %s: %d items, %d ok, %d failed\n",
		sum.Mode, sum.RunID, len(sum.Items), sum.Succeeded(), sum.Failed())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
