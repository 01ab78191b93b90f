package main

import (
	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/pkg/snapshot"
)

func snapshotCmd(configPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "snapshot [demo]",
		Short: "Render a demo and store a snapshot of its tree",
		Long: `Render a demo and store a JSON snapshot of the committed host
tree. Snapshots go to snapshot.dir, or to S3 when snapshot.bucket
is set (credentials come from AWS_ACCESS_KEY_ID and
AWS_SECRET_ACCESS_KEY).

Examples:
  fibers snapshot app
  fibers snapshot counter --name baseline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			demoName, el, err := lookupDemo(args)
			if err != nil {
				return err
			}
			if name == "" {
				name = demoName
			}

			m := newMount(cfg, newLogger(cfg.Log, cmd.ErrOrStderr()), cfg.Scheduler.FrameBudget.Std())
			if err := m.render(el); err != nil {
				return err
			}

			store, where, err := openStore(cfg.Snapshot)
			if err != nil {
				return err
			}
			snap := snapshot.Capture(name, m.container)
			if err := store.Put(cmd.Context(), snap); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			success(w, "Stored snapshot %q (%d nodes)", snap.Name, snap.Nodes)
			info(w, "Location: %s", where)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Snapshot name (default: demo name)")

	return cmd
}
