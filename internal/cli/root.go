package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"regcorpus/internal/app"
	"regcorpus/internal/config"
	"regcorpus/internal/correlation"
	"regcorpus/internal/logger"
	"regcorpus/internal/pipeline"
)

const version = "0.1.0"

var (
	// ErrStageFailed is returned when a stage finished with failed items.
	// The summary has already been printed, so Execute does not repeat it.
	ErrStageFailed = errors.New("stage reported failures")

	ErrLedgerDisabled = errors.New("run ledger disabled, set LEDGER_ENABLED=true")
)

// Loader produces the configuration for a command invocation.
type Loader func() (*config.Config, error)

type env struct {
	load     Loader
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
	deps   *app.Dependencies
	app    *app.App
}

// NewRootCommand builds the regcorpus command tree. A nil load uses
// config.Load.
func NewRootCommand(load Loader) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	e := &env{load: load}

	root := &cobra.Command{
		Use:     "regcorpus",
		Short:   "Regulatory corpus pipeline",
		Version: version,
		Long: `Fetches Norwegian tax and accounting sources into a raw layer, parses them
into structured batches and exports leak-free train/val instruction datasets.`,
		Example: `  # List registered tax sources
  $ regcorpus sources --domain tax

  # Fetch and parse every source
  $ regcorpus ingest

  # Re-parse only what changed in the last ingest
  $ regcorpus process --changed-only

  # Export every dataset and check the result
  $ regcorpus export all
  $ regcorpus export validate`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(
		newSourcesCmd(e),
		newIngestCmd(e),
		newProcessCmd(e),
		newExportCmd(e),
		newRunsCmd(e),
		newJobsCmd(e),
		newWatchCmd(e),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(nil)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrStageFailed) {
			printError(root.ErrOrStderr(), "%v", err)
		}
		return 1
	}
	return 0
}

// run opens configuration and dependencies, calls fn with a cancellable,
// run-scoped context and releases everything afterwards.
func (e *env) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.open(ctx, cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer e.close()

	ctx = correlation.WithRunID(ctx, correlation.NewRunID())
	return fn(ctx, e.app)
}

func (e *env) open(ctx context.Context, logOut io.Writer) error {
	cfg, err := e.load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}

	log, err := logger.New(logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = log
	e.deps = deps
	e.app = app.New(cfg, deps, log)
	return nil
}

func (e *env) close() {
	e.deps.Close()
	e.deps = nil
	e.app = nil
}

// report prints the stage summary and turns item failures into
// ErrStageFailed. A nil result prints nothing.
func report(w io.Writer, res *pipeline.Result, title, itemName string) error {
	if res == nil {
		return nil
	}
	fmt.Fprint(w, res.Summary(title, itemName))
	if res.FailedItems > 0 {
		printWarning(w, "%s: %d failed %s", res.Stage, res.FailedItems, itemName)
		return fmt.Errorf("%w: %s", ErrStageFailed, res.Stage)
	}
	return nil
}
