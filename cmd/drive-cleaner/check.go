package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raoulx24/drive-cleaner/internal/fsprobe"
	"github.com/raoulx24/drive-cleaner/internal/lock"
	"github.com/raoulx24/drive-cleaner/internal/size"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the base path can be cleaned",
	Long: `Verify that the base path exists, is a directory and supports the
create and rename operations tags are written with. Prints the tree size.`,
	Args: cobra.NoArgs,
	RunE: checkHandler,
}

func checkHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base := cfg.Scan.BasePath
	out := cmd.OutOrStdout()

	r := fsprobe.Probe(base)
	if !r.OK() {
		return fmt.Errorf("%s is not usable: %s", base, r.Reason)
	}

	total, err := size.Tree(base)
	if err != nil {
		return fmt.Errorf("measuring %s: %w", base, err)
	}

	lockPath := cfg.Lock.Path
	if lockPath == "" {
		lockPath = lock.PathFor(base)
	}

	fmt.Fprintf(out, "Base:   %s\n", base)
	fmt.Fprintf(out, "Size:   %s\n", size.Format(total))
	fmt.Fprintf(out, "Window: %d months\n", cfg.Retention.Months)
	fmt.Fprintf(out, "Lock:   %s\n", lockPath)
	fmt.Fprintln(out, "OK")
	return nil
}
