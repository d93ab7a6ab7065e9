package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"syncwrap/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.go|directory]",
	Short: "Report diagnostics and out-of-date outputs without writing",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addGenerateFlags(checkCmd)
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	target := resolveTarget(args)
	opts, err := driverOptions(cmd, target, true)
	if err != nil {
		return err
	}
	res, err := generate(cmd, target, opts)
	if err != nil {
		return err
	}
	err = report(cmd, res, format)
	if err == nil && res.Count(driver.StatusStale) > 0 {
		return errors.New("generated files are out of date; run syncwrap gen")
	}
	return err
}
