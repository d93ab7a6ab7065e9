package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [flags] [file.go|directory]",
	Short: "List the syncwrap directives found",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
}

func runList(cmd *cobra.Command, args []string) error {
	target := resolveTarget(args)
	opts, err := driverOptions(cmd, target, true)
	if err != nil {
		return err
	}
	if opts.Recursive, err = cmd.Flags().GetBool("recursive"); err != nil {
		return err
	}
	res, err := generate(cmd, target, opts)
	if err != nil {
		return err
	}

	sites := res.Registry.All()
	rows := make([][3]string, 0, len(sites))
	width := [2]int{}
	for _, s := range sites {
		start, _ := res.FileSet.Resolve(s.Directive.Span)
		loc := fmt.Sprintf("%s:%d", s.Path, start.Line)
		row := [3]string{loc, s.Directive.Kind.Request(), s.Target}
		width[0] = max(width[0], runewidth.StringWidth(row[0]))
		width[1] = max(width[1], runewidth.StringWidth(row[1]))
		rows = append(rows, row)
	}
	out := cmd.OutOrStdout()
	for _, row := range rows {
		fmt.Fprintf(out, "%s  %s  %s\n",
			runewidth.FillRight(row[0], width[0]),
			runewidth.FillRight(row[1], width[1]),
			row[2])
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no directives found")
	}
	return nil
}
