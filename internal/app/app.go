package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"regcorpus/features/catalog"
	"regcorpus/features/dataset"
	"regcorpus/features/dataset/glossary"
	"regcorpus/features/dataset/rules"
	"regcorpus/features/dataset/synthetic"
	"regcorpus/features/ingest"
	"regcorpus/features/job"
	"regcorpus/features/run"
	"regcorpus/features/transform"
	"regcorpus/internal/config"
	"regcorpus/internal/contentstore"
	"regcorpus/internal/events"
	"regcorpus/internal/fetch"
	"regcorpus/internal/pipeline"
)

// App wires the stages to their storage, fetch client and ledgers.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *contentstore.FileStore
	fetcher  ingest.Fetcher
	registry *transform.Registry
	emitter  *events.Emitter
	runner   *pipeline.Runner
	// retries run through a runner without a recorder so a failed retry
	// does not add a second ledger row for the same item.
	retryRunner *pipeline.Runner

	Runs run.Repository
	Jobs *job.Service

	catalogOnce sync.Once
	catalog     *catalog.Catalog
	rowErrs     []error
	catalogErr  error
}

func New(cfg *config.Config, deps *Dependencies, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	opts := fetch.DefaultOptions()
	opts.MaxRetries = cfg.HTTPMaxRetries
	opts.Backoff = cfg.HTTPBackoff
	opts.Timeout = cfg.HTTPTimeout
	opts.UserAgent = cfg.HTTPUserAgent

	a := &App{
		cfg:      cfg,
		logger:   logger,
		store:    contentstore.NewFileStore(cfg.RawDir),
		fetcher:  fetch.NewClient(opts),
		registry: transform.NewDefaultRegistry(),
		emitter:  events.NewEmitter(deps.Publisher(), logger),
	}

	var recorder pipeline.Recorder
	if deps != nil && deps.DB != nil {
		runRepo := run.NewPostgresRepo(deps.DB)
		jobRepo := job.NewPostgresRepo(deps.DB)
		recorder = run.NewRecorder(runRepo, jobRepo, logger)
		a.Runs = runRepo
		a.Jobs = job.NewService(jobRepo, a, logger)
	}
	a.runner = pipeline.NewRunner(logger, recorder)
	a.retryRunner = pipeline.NewRunner(logger, nil)
	return a
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Logger() *slog.Logger { return a.logger }

// Catalog loads the sources file once. Row errors are returned alongside a
// usable catalog.
func (a *App) Catalog() (*catalog.Catalog, []error, error) {
	a.catalogOnce.Do(func() {
		a.catalog, a.rowErrs, a.catalogErr = catalog.LoadFile(a.cfg.SourcesFile)
		for _, e := range a.rowErrs {
			a.logger.Warn("skipping source row", "error", e)
		}
	})
	return a.catalog, a.rowErrs, a.catalogErr
}

// IngestResult is the outcome of an ingest, optionally followed by transform.
type IngestResult struct {
	Ingest    *pipeline.Result
	Transform *pipeline.Result
}

// Ingest fetches the selected sources into the raw layer. Unless bronzeOnly
// is set it continues with transform for every source that was stored.
func (a *App) Ingest(ctx context.Context, f catalog.Filter, bronzeOnly bool) (IngestResult, error) {
	cat, rowErrs, err := a.Catalog()
	if err != nil {
		return IngestResult{}, err
	}
	sources := cat.Select(f)
	stage := ingest.NewStage(a.fetcher, a.store, a.emitter, a.logger, a.cfg.RawDir, sources)

	var out IngestResult
	out.Ingest, err = a.runner.Run(ctx, pipeline.WithRejected(stage, rejectedRows(rowErrs)))
	if err != nil || bronzeOnly {
		return out, err
	}

	ids := ingest.IngestedIDs(stage.Manifest())
	if len(ids) == 0 {
		return out, nil
	}
	out.Transform, err = a.transform(ctx, a.runner, ids, BatchName(f), nil)
	return out, err
}

// rejectedRows turns skipped catalog rows into stage failures.
func rejectedRows(rowErrs []error) []pipeline.Rejected {
	out := make([]pipeline.Rejected, 0, len(rowErrs))
	for _, e := range rowErrs {
		var re *catalog.RowError
		if errors.As(e, &re) {
			out = append(out, pipeline.Rejected{ItemID: re.ItemID(), Err: errors.New(re.Reason)})
			continue
		}
		out = append(out, pipeline.Rejected{ItemID: "catalog", Err: e})
	}
	return out
}

// ProcessOptions select the raw payloads to transform.
type ProcessOptions struct {
	Filter      catalog.Filter
	Batch       string
	ChangedOnly bool
	IDs         []string
}

// Process transforms staged payloads into one structured batch. Selections
// made through the catalog also report its skipped rows.
func (a *App) Process(ctx context.Context, opts ProcessOptions) (*pipeline.Result, error) {
	ids, err := a.selectIDs(opts)
	if err != nil {
		return nil, err
	}
	var rejected []pipeline.Rejected
	if len(opts.IDs) == 0 {
		_, rowErrs, _ := a.Catalog()
		rejected = rejectedRows(rowErrs)
	}
	return a.transform(ctx, a.runner, ids, ProcessBatchName(opts), rejected)
}

// ProcessBatchName is the batch a process run writes. Partial selections get
// their own batch so they never replace the batch of a full selection.
func ProcessBatchName(opts ProcessOptions) string {
	switch {
	case opts.Batch != "":
		return opts.Batch
	case len(opts.IDs) == 1:
		return "source_" + opts.IDs[0]
	case len(opts.IDs) > 1:
		ids := slices.Clone(opts.IDs)
		slices.Sort(ids)
		return "ids_" + strings.Join(ids, "_")
	case opts.ChangedOnly:
		return "changed_" + BatchName(opts.Filter)
	default:
		return BatchName(opts.Filter)
	}
}

func (a *App) selectIDs(opts ProcessOptions) ([]string, error) {
	if len(opts.IDs) > 0 {
		return opts.IDs, nil
	}
	cat, _, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	ids := catalog.IDs(cat.Select(opts.Filter))
	if !opts.ChangedOnly {
		return ids, nil
	}

	entries, err := ingest.ReadManifest(ingest.ManifestPath(a.cfg.RawDir))
	if err != nil {
		return nil, err
	}
	changed := ingest.ChangedIDs(entries)
	return slices.DeleteFunc(ids, func(id string) bool { return !slices.Contains(changed, id) }), nil
}

func (a *App) transform(ctx context.Context, runner *pipeline.Runner, ids []string, batch string, rejected []pipeline.Rejected) (*pipeline.Result, error) {
	cat, _, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	stage := transform.NewStage(cat, a.store, a.registry, a.emitter, a.logger, a.cfg.StructuredDir, batch, ids)
	return runner.Run(ctx, pipeline.WithRejected(stage, rejected))
}

// BatchName derives a structured batch name from the selection.
func BatchName(f catalog.Filter) string {
	var parts []string
	for _, p := range []string{f.Domain, f.Kind, f.Publisher, f.CrawlFrequency} {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "_")
}

// ExportOptions override the configured export settings.
type ExportOptions struct {
	Datasets []string
	// Zero values fall back to configuration.
	SplitRatio float64
	Seed       *uint64
	InputDir   string
	OutputDir  string
	// GlossaryType is tax, accounting or both.
	GlossaryType             string
	VariationsPerRule        int
	ConversationsPerTemplate int
}

func (a *App) Export(ctx context.Context, opts ExportOptions) (*pipeline.Result, []dataset.Stats, error) {
	return a.export(ctx, a.runner, opts)
}

func (a *App) export(ctx context.Context, runner *pipeline.Runner, opts ExportOptions) (*pipeline.Result, []dataset.Stats, error) {
	domains, err := Domains(opts)
	if err != nil {
		return nil, nil, err
	}

	input := opts.InputDir
	if input == "" {
		input = a.cfg.StructuredDir
	}
	dopts, err := a.exportOptions(opts, input)
	if err != nil {
		return nil, nil, err
	}
	exporter, err := dataset.NewExporter(dopts, a.logger)
	if err != nil {
		return nil, nil, err
	}

	stage := dataset.NewStage(exporter, domains, dataset.DirSource(input), a.emitter, a.logger)
	res, err := runner.Run(ctx, stage)
	return res, stage.Stats(), err
}

// exportOptions resolves export settings. Without a pinned created_at the
// stamp is the newest batch's modification time, so re-exporting unchanged
// batches is byte-identical.
func (a *App) exportOptions(opts ExportOptions, input string) (dataset.Options, error) {
	out := opts.OutputDir
	if out == "" {
		out = a.cfg.CorpusDir
	}
	dopts := dataset.DefaultOptions(out)
	dopts.SplitRatio = a.cfg.SplitRatio
	dopts.Seed = a.cfg.SplitSeed
	dopts.MinContentChars = a.cfg.QualityMinChars
	dopts.MaxContentChars = a.cfg.QualityMaxChars
	dopts.Now = a.cfg.CreatedAt()
	if opts.SplitRatio != 0 {
		dopts.SplitRatio = opts.SplitRatio
	}
	if opts.Seed != nil {
		dopts.Seed = *opts.Seed
	}
	if dopts.Now.IsZero() {
		latest, err := transform.LatestBatchTime(input)
		if err != nil {
			return dopts, fmt.Errorf("stat structured batches: %w", err)
		}
		dopts.Now = latest.UTC().Truncate(time.Second)
	}
	return dopts, nil
}

// Domains resolves dataset selectors (glossary, rules, synthetic, all, or a
// dataset name) into exporters, in a stable order without duplicates.
func Domains(opts ExportOptions) ([]dataset.Domain, error) {
	var (
		out  []dataset.Domain
		seen = map[string]bool{}
	)
	add := func(d dataset.Domain) {
		if !seen[d.Name()] {
			seen[d.Name()] = true
			out = append(out, d)
		}
	}
	glossaries := func() error {
		switch strings.ToLower(opts.GlossaryType) {
		case "", "both":
			add(glossary.NewTax())
			add(glossary.NewAccounting())
		case "tax":
			add(glossary.NewTax())
		case "accounting":
			add(glossary.NewAccounting())
		default:
			return fmt.Errorf("unknown glossary type %q", opts.GlossaryType)
		}
		return nil
	}

	for _, name := range opts.Datasets {
		switch strings.ToLower(name) {
		case "glossary":
			if err := glossaries(); err != nil {
				return nil, err
			}
		case glossary.TaxName:
			add(glossary.NewTax())
		case glossary.AccountingName:
			add(glossary.NewAccounting())
		case "rules", rules.Name:
			add(rules.New(opts.VariationsPerRule))
		case "synthetic", synthetic.Name:
			add(synthetic.New(opts.ConversationsPerTemplate))
		case "all":
			if err := glossaries(); err != nil {
				return nil, err
			}
			add(rules.New(opts.VariationsPerRule))
			add(synthetic.New(opts.ConversationsPerTemplate))
		default:
			return nil, fmt.Errorf("unknown dataset %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no datasets selected")
	}
	return out, nil
}

// Retry re-runs one stage for a single failed item. It satisfies job.Retrier.
func (a *App) Retry(ctx context.Context, stage, itemID string) error {
	var (
		res *pipeline.Result
		err error
	)
	switch stage {
	case ingest.StageName:
		cat, _, cerr := a.Catalog()
		if cerr != nil {
			return cerr
		}
		src, lerr := cat.Lookup(itemID)
		if lerr != nil {
			return lerr
		}
		st := ingest.NewStage(a.fetcher, a.store, a.emitter, a.logger, a.cfg.RawDir, []catalog.Source{src}).MergeManifest()
		res, err = a.retryRunner.Run(ctx, st)
	case transform.StageName:
		res, err = a.transform(ctx, a.retryRunner, []string{itemID}, "source_"+itemID, nil)
	case dataset.StageName:
		res, _, err = a.export(ctx, a.retryRunner, ExportOptions{Datasets: []string{itemID}})
	default:
		return fmt.Errorf("cannot retry stage %q", stage)
	}
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("%s", res.Failures[0].Error)
	}
	return nil
}

// TransformSources transforms ids into batch and reports the first item
// failure as an error. It satisfies worker.Transformer.
func (a *App) TransformSources(ctx context.Context, ids []string, batch string) error {
	res, err := a.transform(ctx, a.runner, ids, batch, nil)
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		f := res.Failures[0]
		return fmt.Errorf("%s: %s", f.ItemID, f.Error)
	}
	return nil
}
