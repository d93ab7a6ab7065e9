package main

import (
	"github.com/spf13/cobra"
)

var genCmd = &cobra.Command{
	Use:   "gen [flags] [file.go|directory]",
	Short: "Generate synchronous counterparts",
	Long: `Generate the *_sync.go file of every source file carrying syncwrap
directives. Without an argument the file named by $GOFILE is used, so
"//go:generate syncwrap gen" works as is; otherwise the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGen,
}

func init() {
	addGenerateFlags(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	target := resolveTarget(args)
	opts, err := driverOptions(cmd, target, false)
	if err != nil {
		return err
	}
	res, err := generate(cmd, target, opts)
	if err != nil {
		return err
	}
	return report(cmd, res, "pretty")
}
