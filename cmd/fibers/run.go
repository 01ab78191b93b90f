package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/internal/config"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/events"
	"github.com/vango-dev/fibers/pkg/idle"
	"github.com/vango-dev/fibers/pkg/memhost"
	"github.com/vango-dev/fibers/pkg/reconciler"
)

func runCmd(configPath *string) *cobra.Command {
	var (
		budget time.Duration
		clicks []string
	)

	cmd := &cobra.Command{
		Use:   "run [demo]",
		Short: "Render a demo and print the committed tree",
		Long: `Render a demo into an in-memory host, one frame budget at a
time, and print the resulting HTML.

Each --click dispatches a click at the node with that id and
renders the resulting pass before the next click.

Examples:
  fibers run
  fibers run app
  fibers run counter --click count --click count
  fibers run app --budget 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			name, el, err := lookupDemo(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("budget") {
				budget = cfg.Scheduler.FrameBudget.Std()
			}

			w := cmd.OutOrStdout()
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			m := newMount(cfg, logger, budget)
			if err := m.render(el); err != nil {
				return err
			}
			success(w, "Rendered %s in %d frames", name, m.frames)

			for _, id := range clicks {
				target := m.container.FindByID(id)
				if target == nil {
					warn(w, "No node with id %q", id)
					continue
				}
				m.frames = 0
				m.doc.DispatchEvent(target, memhost.NewMouseEvent("click", 0, 0))
				if err := m.drain(); err != nil {
					return err
				}
				info(w, "click #%s re-rendered in %d frames", id, m.frames)
			}

			fmt.Fprintln(w, m.container.HTML())
			return nil
		},
	}

	cmd.Flags().DurationVarP(&budget, "budget", "b", 0, "Frame budget (default from config)")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "Click the node with this id (repeatable)")

	return cmd
}

// mount is a demo rendered into a memhost document without an idle loop.
// Frames are simulated by calling Resume with a fixed budget.
type mount struct {
	doc       *memhost.Document
	container *memhost.Node
	root      *reconciler.Root
	budget    time.Duration
	frames    int
}

func newMount(cfg *config.Config, logger *slog.Logger, budget time.Duration) *mount {
	doc := memhost.New()
	container := doc.CreateContainer("root")
	sys := events.New(doc, events.WithLogger(logger.With("component", "events")))
	sys.Listen(container)

	root := reconciler.New(container, doc, nil,
		reconciler.WithLogger(logger.With("component", "reconciler")),
		reconciler.WithDelegatedEvents(sys.Handles),
		reconciler.WithMinRemaining(cfg.Scheduler.MinRemaining.Std()),
		reconciler.WithDebugHooks(cfg.Debug.HookOrder),
	)
	return &mount{doc: doc, container: container, root: root, budget: budget}
}

func (m *mount) render(el *element.Element) error {
	m.root.Render(el)
	return m.drain()
}

// drain resumes the staged pass once per frame until it commits.
func (m *mount) drain() error {
	for m.root.Pending() {
		m.frames++
		if _, err := m.root.Resume(idle.Budget(m.budget)); err != nil {
			return err
		}
	}
	return nil
}
