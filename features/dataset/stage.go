package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"regcorpus/features/transform"
	"regcorpus/internal/config"
	"regcorpus/internal/events"
	"regcorpus/internal/pipeline"
)

const StageName = "export"

// CombinedStatsFile is written when more than one dataset is exported in a run.
const CombinedStatsFile = "combined_export_stats.json"

// RecordSource loads the structured records a run exports from.
type RecordSource func(ctx context.Context) ([]transform.Record, error)

// Stage exports one or more domains from the same structured input.
type Stage struct {
	exporter *Exporter
	domains  []Domain
	load     RecordSource
	emitter  *events.Emitter
	logger   *slog.Logger

	records []transform.Record
	stats   []Stats
}

func NewStage(exporter *Exporter, domains []Domain, load RecordSource, emitter *events.Emitter, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, logger)
	}
	return &Stage{exporter: exporter, domains: domains, load: load, emitter: emitter, logger: logger}
}

// DirSource reads every structured batch in dir.
func DirSource(dir string) RecordSource {
	return func(context.Context) ([]transform.Record, error) {
		return transform.ReadDir(dir)
	}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Prepare(ctx context.Context) (int, error) {
	if len(s.domains) == 0 {
		return 0, fmt.Errorf("no datasets selected")
	}
	records, err := s.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load structured records: %w", err)
	}
	s.records = records
	s.stats = nil
	return len(s.domains), nil
}

func (s *Stage) Execute(ctx context.Context, res *pipeline.Result) error {
	res.SetMeta("input_records", len(s.records))
	for _, d := range s.domains {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := s.exporter.Export(ctx, d, s.records)
		if err != nil {
			res.AddFailure(d.Name(), err)
			continue
		}
		s.stats = append(s.stats, st)
		res.AddProcessed(1)
		res.SetMeta(d.Name(), st)

		ev := events.NewEvent(ctx, config.TopicCorpusExported)
		ev.SourceID = d.Name()
		ev.Path = s.exporter.Options().OutputDir
		ev.Count = st.TrainSamples + st.ValSamples
		s.emitter.Emit(ctx, ev)
	}

	if len(s.domains) > 1 {
		path := filepath.Join(s.exporter.Options().OutputDir, "metadata", CombinedStatsFile)
		if err := WriteJSON(path, Combine(s.stats)); err != nil {
			return fmt.Errorf("write combined stats: %w", err)
		}
		res.SetMeta("combined_stats", path)
	}
	return nil
}

func (s *Stage) Stats() []Stats {
	return s.stats
}

type CombinedStats struct {
	Datasets     map[string]Stats `json:"datasets"`
	TotalTrain   int              `json:"total_train_samples"`
	TotalVal     int              `json:"total_val_samples"`
	TotalSamples int              `json:"total_samples"`
}

func Combine(stats []Stats) CombinedStats {
	c := CombinedStats{Datasets: make(map[string]Stats, len(stats))}
	for _, st := range stats {
		c.Datasets[st.Name] = st
		c.TotalTrain += st.TrainSamples
		c.TotalVal += st.ValSamples
	}
	c.TotalSamples = c.TotalTrain + c.TotalVal
	return c
}
