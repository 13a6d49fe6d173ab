package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"regcorpus/features/catalog"
	"regcorpus/internal/config"
	"regcorpus/internal/contentstore"
	"regcorpus/internal/events"
	"regcorpus/internal/pipeline"
	"regcorpus/internal/text"
)

const StageName = "transform"

// RawReader reads staged payloads.
type RawReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Stage turns staged payloads of the selected sources into one structured batch.
type Stage struct {
	catalog  *catalog.Catalog
	store    RawReader
	registry *Registry
	emitter  *events.Emitter
	logger   *slog.Logger

	outDir string
	batch  string
	ids    []string

	records []Record
}

func NewStage(cat *catalog.Catalog, store RawReader, registry *Registry, emitter *events.Emitter, logger *slog.Logger, outDir, batch string, ids []string) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, logger)
	}
	return &Stage{
		catalog:  cat,
		store:    store,
		registry: registry,
		emitter:  emitter,
		logger:   logger,
		outDir:   outDir,
		batch:    batch,
		ids:      ids,
	}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Prepare(ctx context.Context) (int, error) {
	if s.batch == "" {
		return 0, fmt.Errorf("batch name is required")
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create structured dir: %w", err)
	}
	s.records = nil
	return len(s.ids), nil
}

func (s *Stage) Execute(ctx context.Context, res *pipeline.Result) error {
	for _, id := range s.ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := s.processOne(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "source failed", "source_id", id, "error", err)
			res.AddFailure(id, err)
			continue
		}
		s.records = append(s.records, records...)
		res.AddProcessed(1)
		s.logger.DebugContext(ctx, "source transformed", "source_id", id, "records", len(records))
	}

	path := BatchPath(s.outDir, s.batch)
	if err := WriteBatch(path, s.records); err != nil {
		return fmt.Errorf("write batch %s: %w", s.batch, err)
	}
	res.SetMeta("batch_path", path)
	res.SetMeta("records", len(s.records))

	ev := events.NewEvent(ctx, config.TopicBatchWritten)
	ev.Path = path
	ev.Count = len(s.records)
	s.emitter.Emit(ctx, ev)
	return nil
}

// Records returns what the last Execute accumulated.
func (s *Stage) Records() []Record {
	return s.records
}

func (s *Stage) processOne(ctx context.Context, id string) ([]Record, error) {
	src, err := s.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, src.StorageKey())
	if err != nil {
		return nil, err
	}
	parser, err := s.registry.Parser(src.Kind)
	if err != nil {
		return nil, err
	}
	records, err := parser.Parse(ctx, src, raw)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		Tag(r, src)
	}
	return records, nil
}

// Tag stamps a record with the classification of its source, the hash of its
// normalized text and size metrics.
func Tag(r Record, src catalog.Source) {
	content := r.Text()
	m := text.Measure(content)

	r["source_id"] = src.ID
	r["source_url"] = src.URL
	r["domain"] = src.Domain
	r["source_type"] = src.Kind
	r["publisher"] = src.Publisher
	r["jurisdiction"] = src.Jurisdiction
	r["version"] = src.Version
	r["sha256"] = text.Hash(content)
	r["char_count"] = m.CharCount
	r["word_count"] = m.WordCount
	r["token_estimate"] = m.TokenEstimate
}

func BatchPath(dir, batch string) string {
	return filepath.Join(dir, batch+".json")
}

// WriteBatch replaces path with the records as one JSON array.
func WriteBatch(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return contentstore.WriteAtomic(path, b)
}

// ReadBatch loads a batch written by WriteBatch.
func ReadBatch(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// LatestBatchTime returns the newest modification time among the batches in
// dir, or the zero time when there are none.
func LatestBatchTime(dir string) (time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return time.Time{}, err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}

// ReadDir loads every batch in dir in file-name order. A source written to
// several batches is read only from the newest one, by modification time and
// then file name. Records without a source_id are kept from every batch.
func ReadDir(dir string) ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	type batch struct {
		records []Record
		mod     time.Time
	}
	batches := make([]batch, len(matches))
	owner := make(map[string]int)
	for i, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, err
		}
		records, err := ReadBatch(m)
		if err != nil {
			return nil, err
		}
		batches[i] = batch{records: records, mod: info.ModTime()}
		for _, r := range records {
			id, ok := r["source_id"].(string)
			if !ok || id == "" {
				continue
			}
			// matches is sorted, so a later file wins a tie.
			if j, seen := owner[id]; !seen || !batches[j].mod.After(info.ModTime()) {
				owner[id] = i
			}
		}
	}

	var all []Record
	for i, b := range batches {
		for _, r := range b.records {
			if id, ok := r["source_id"].(string); ok && id != "" && owner[id] != i {
				continue
			}
			all = append(all, r)
		}
	}
	return all, nil
}
