package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/postcrab/postcrab/internal/config"
	"github.com/postcrab/postcrab/internal/request"
)

func defaultSettings() config.Settings {
	return config.Settings{
		DefaultTheme:       "dark",
		DefaultMethod:      request.MethodGet.String(),
		DefaultContentType: request.ContentJSON.String(),
		HighlightStyle:     config.DefaultHighlightStyle,
		LogLevel:           "info",
	}
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, handle, err := config.LoadSettings()
			if err != nil {
				if !force {
					return err
				}
				handle = config.SettingsHandle{Path: filepath.Join(config.Dir(), "settings.toml"), Format: config.SettingsFormatTOML}
			} else if !force {
				if _, statErr := os.Stat(handle.Path); statErr == nil {
					return fmt.Errorf("settings already exist at %s (use --force to overwrite)", handle.Path)
				} else if !errors.Is(statErr, fs.ErrNotExist) {
					return statErr
				}
			}
			if err := config.SaveSettings(defaultSettings(), handle); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", handle.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}
