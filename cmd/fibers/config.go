package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/internal/config"
)

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default fibers.json",
		Long: `Write fibers.json with default values into the --config
directory. Use a .yaml path with --config to write YAML instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath
			if st, err := os.Stat(path); err == nil && st.IsDir() {
				path = filepath.Join(path, config.ConfigFileName)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			source := cfg.Path()
			if source == "" {
				source = "defaults"
			}
			info(w, "Source:         %s", source)
			info(w, "Min remaining:  %s", cfg.Scheduler.MinRemaining)
			info(w, "Frame interval: %s", cfg.Scheduler.FrameInterval)
			info(w, "Frame budget:   %s", cfg.Scheduler.FrameBudget)
			info(w, "Hook checks:    %t", cfg.Debug.HookOrder)
			info(w, "Log:            %s/%s", cfg.Log.Level, cfg.Log.Format)
			info(w, "Metrics:        %t (%s)", cfg.Metrics.Enabled, cfg.Metrics.Namespace)
			info(w, "Server:         %s", cfg.Server.Addr)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
