package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactiveurl/internal/config"
	"github.com/vango-dev/reactiveurl/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			name := config.JSONFileName
			if format == "toml" {
				name = config.TOMLFileName
			} else if format != "json" {
				return errors.New("R102").WithDetailf("got --format %q", format)
			}
			path := filepath.Join(dir, name)

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.CategoryCLI, "%s already exists", path).
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Defaults = map[string]any{"q": "", "status": "open"}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success(cmd, "Created %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Config format: json or toml")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
