package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pytidy/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default pytidy.toml",
	Long: `Init writes a configuration file with every option at its default value.
If [dir] is omitted, the file is created in the current directory; a missing
directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file")
}

// runInit refuses to touch an existing pytidy.toml unless --force is given.
func runInit(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return err
	}

	fsys := afero.NewOsFs()
	if st, err := fsys.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = fsys.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	path := filepath.Join(target, config.FileName)
	if force {
		if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := config.WriteDefault(fsys, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("already initialized: %s exists (use --force)", path)
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !isQuiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	}
	return nil
}
