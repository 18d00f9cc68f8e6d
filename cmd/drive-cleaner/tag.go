package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raoulx24/drive-cleaner/internal/tag"
	"github.com/raoulx24/drive-cleaner/internal/walker"
)

var keepReason string

// tagCmd groups the operator commands working on a single tag
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Inspect or override a directory tag",
}

var tagShowCmd = &cobra.Command{
	Use:   "show <dir>",
	Short: "Print the tag of a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  tagShowHandler,
}

var tagKeepCmd = &cobra.Command{
	Use:   "keep <dir>",
	Short: "Exempt a directory from compression and deletion",
	Long: `Set the keep instruction on a directory. An untagged directory is
tagged with its current listing first.`,
	Args: cobra.ExactArgs(1),
	RunE: tagKeepHandler,
}

func init() {
	tagKeepCmd.Flags().StringVar(&keepReason, "reason", "Kept by operator", "reason recorded in the tag")

	tagCmd.AddCommand(tagShowCmd)
	tagCmd.AddCommand(tagKeepCmd)
}

func tagShowHandler(cmd *cobra.Command, args []string) error {
	t, err := tag.NewStore(nil).Read(filepath.Clean(args[0]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Root:        %s\n", t.Root)
	fmt.Fprintf(out, "Created:     %s\n", t.CreationDate.Format(tag.DateLayout))
	fmt.Fprintf(out, "Instruction: %s\n", t.Instruction)
	fmt.Fprintf(out, "Reason:      %s\n", t.Reason)
	fmt.Fprintf(out, "Folders:     %s\n", strings.Join(t.Folders, ", "))
	fmt.Fprintf(out, "Files:       %s\n", strings.Join(t.Files, ", "))
	if t.Notes != "" {
		fmt.Fprintf(out, "Notes:       %s\n", t.Notes)
	}
	return nil
}

func tagKeepHandler(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	store := tag.NewStore(nil)
	ctx := cmd.Context()

	t, err := store.Read(dir)
	switch {
	case err == nil:
		t.Root = dir
		t.Instruction = tag.Keep
		t.Reason = keepReason
		if err := store.Write(ctx, t); err != nil {
			return err
		}
	case errors.Is(err, fs.ErrNotExist):
		folders, files, lerr := walker.Listing(nil, dir)
		if lerr != nil {
			return fmt.Errorf("listing %s: %w", dir, lerr)
		}
		if _, err := store.Create(ctx, dir, tag.Keep, keepReason, folders, files); err != nil {
			return err
		}
	default:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is now kept\n", dir)
	return nil
}
