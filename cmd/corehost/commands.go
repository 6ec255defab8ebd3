package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coinbase/clrhost-go/pkg/clrhost"
)

func buildTPACmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tpa [dir]",
		Short: "Print the trusted platform assemblies list for a directory",
		Long: "Print the trusted platform assemblies list the host would pass to the runtime, " +
			"one entry per line. The directory defaults to the configured runtime directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resolveConfig(cmd)
			if err != nil {
				return err
			}
			dir := cfg.RuntimeDir
			if len(args) == 1 {
				dir = args[0]
			}
			if sep := string(os.PathSeparator); !strings.HasSuffix(dir, sep) {
				dir += sep
			}

			list, err := clrhost.BuildTPAList(dir)
			if err != nil {
				return &clrhost.ScanError{Dir: dir, Err: err}
			}
			for _, entry := range clrhost.SplitPathList(list) {
				fmt.Fprintln(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the corehost version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "corehost %s (%s)\n", clrhost.WrapperVersion(), clrhost.Commit)
			return nil
		},
	}
}
