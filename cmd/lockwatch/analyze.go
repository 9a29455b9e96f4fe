// analyze.go implements the 'lockwatch analyze' command.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kolkov/lockwatch/internal/analyze"
)

// analyzeCommand scans a Go file or directory tree for locking hazards and
// prints the findings as a table, or as JSON with -json. Exit code is 1
// when findings exist so the command slots into CI pipelines.
func analyzeCommand(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit findings as JSON instead of a table")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lockwatch analyze [-json] <file-or-directory>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	target := "."
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	res, err := analyze.Analyze(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		printFindings(res)
	}

	if len(res.Findings) > 0 {
		os.Exit(1)
	}
}

func printFindings(res *analyze.Result) {
	if res.ModulePath != "" {
		fmt.Printf("module %s: scanned %d file(s)\n", res.ModulePath, res.FilesScanned)
	} else {
		fmt.Printf("scanned %d file(s)\n", res.FilesScanned)
	}

	if len(res.Findings) == 0 {
		fmt.Println(text.FgGreen.Sprint("no locking hazards found"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Location", "Category", "Subject", "Detail"})
	for _, f := range res.Findings {
		t.AppendRow(table.Row{
			fmt.Sprintf("%s:%d:%d", filepath.Base(f.File), f.Line, f.Column),
			categoryCell(f.Category),
			f.Subject,
			f.Message,
		})
	}
	t.Render()
	fmt.Printf("%d finding(s)\n", len(res.Findings))
}

// categoryCell colors categories by severity: order inversions are the
// ones that become deadlocks.
func categoryCell(c analyze.Category) string {
	switch c {
	case analyze.OrderInversion:
		return text.FgRed.Sprint(string(c))
	case analyze.UnreleasedLock, analyze.UnsyncedAccess:
		return text.FgYellow.Sprint(string(c))
	default:
		return string(c)
	}
}
