package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"regcorpus/features/transform"
	"regcorpus/internal/contentstore"
)

type Options struct {
	SplitRatio      float64
	Seed            uint64
	MinContentChars int
	MaxContentChars int
	OutputDir       string
	// Now stamps created_at on every sample of one export. The zero time is
	// written as is.
	Now time.Time
}

func DefaultOptions(outputDir string) Options {
	return Options{
		SplitRatio:      0.8,
		Seed:            42,
		MinContentChars: 10,
		MaxContentChars: 4000,
		OutputDir:       outputDir,
	}
}

func (o Options) validate() error {
	if o.SplitRatio <= 0 || o.SplitRatio >= 1 {
		return fmt.Errorf("split ratio must be in (0,1), got %v", o.SplitRatio)
	}
	if o.MaxContentChars <= o.MinContentChars {
		return fmt.Errorf("max content chars %d must exceed min %d", o.MaxContentChars, o.MinContentChars)
	}
	if o.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	return nil
}

type Stats struct {
	Name              string  `json:"name"`
	TotalGenerated    int     `json:"total_generated"`
	TotalFiltered     int     `json:"total_filtered"`
	DuplicatesRemoved int     `json:"duplicates_removed"`
	QualityIssues     int     `json:"quality_issues"`
	TrainSamples      int     `json:"train_samples"`
	ValSamples        int     `json:"val_samples"`
	TrainFamilies     int     `json:"train_families"`
	ValFamilies       int     `json:"val_families"`
	SplitAlgorithm    string  `json:"split_algorithm"`
	SplitRatio        float64 `json:"split_ratio"`
	Seed              uint64  `json:"seed"`
	CreatedAt         string  `json:"created_at"`
}

type Exporter struct {
	opts   Options
	logger *slog.Logger
}

func NewExporter(opts Options, logger *slog.Logger) (*Exporter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{opts: opts, logger: logger}, nil
}

func (e *Exporter) Options() Options {
	return e.opts
}

// Export runs generate, dedupe, quality gate and family split for one domain
// and writes train/<name>.jsonl, val/<name>.jsonl and the stats file.
func (e *Exporter) Export(ctx context.Context, d Domain, records []transform.Record) (Stats, error) {
	name := d.Name()
	stamp := e.opts.Now.UTC().Format(time.RFC3339)

	stats := Stats{
		Name:           name,
		SplitAlgorithm: SplitAlgorithm,
		SplitRatio:     e.opts.SplitRatio,
		Seed:           e.opts.Seed,
		CreatedAt:      stamp,
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	samples, err := d.GenerateSamples(records)
	if err != nil {
		return stats, fmt.Errorf("generate %s samples: %w", name, err)
	}
	stats.TotalGenerated = len(samples)

	samples, stats.DuplicatesRemoved = Dedupe(samples)
	gate := QualityGate{MinChars: e.opts.MinContentChars, MaxChars: e.opts.MaxContentChars}
	samples, stats.QualityIssues = gate.Filter(samples)
	stats.TotalFiltered = len(samples)

	part := SplitByFamily(samples, d.FamilyKey, e.opts.SplitRatio, e.opts.Seed)
	stats.TrainSamples = len(part.Train)
	stats.ValSamples = len(part.Val)
	stats.TrainFamilies = len(part.TrainFamilies)
	stats.ValFamilies = len(part.ValFamilies)

	e.logger.InfoContext(ctx, "dataset split",
		"dataset", name,
		"generated", stats.TotalGenerated,
		"duplicates", stats.DuplicatesRemoved,
		"quality_issues", stats.QualityIssues,
		"train_families", stats.TrainFamilies,
		"val_families", stats.ValFamilies,
	)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := e.writeSplit(part.Train, name, SplitTrain, stamp); err != nil {
		return stats, err
	}
	if err := e.writeSplit(part.Val, name, SplitVal, stamp); err != nil {
		return stats, err
	}
	if err := WriteJSON(StatsPath(e.opts.OutputDir, name), stats); err != nil {
		return stats, fmt.Errorf("write %s stats: %w", name, err)
	}

	e.logger.InfoContext(ctx, "dataset exported", "dataset", name, "train", stats.TrainSamples, "val", stats.ValSamples)
	return stats, nil
}

func (e *Exporter) writeSplit(samples []Sample, name, split, stamp string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, s := range samples {
		s.Metadata.Split = split
		if s.Metadata.CreatedAt == "" {
			s.Metadata.CreatedAt = stamp
		}
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode %s sample: %w", split, err)
		}
	}
	path := SplitPath(e.opts.OutputDir, split, name)
	if err := contentstore.WriteAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func SplitPath(dir, split, name string) string {
	return filepath.Join(dir, split, name+".jsonl")
}

func StatsPath(dir, name string) string {
	return filepath.Join(dir, "metadata", name+"_export_stats.json")
}

// WriteJSON replaces path with the indented JSON encoding of v.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return contentstore.WriteAtomic(path, append(b, '\n'))
}
