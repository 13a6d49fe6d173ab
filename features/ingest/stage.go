package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regcorpus/features/catalog"
	"regcorpus/internal/config"
	"regcorpus/internal/contentstore"
	"regcorpus/internal/events"
	"regcorpus/internal/pipeline"
)

const StageName = "ingest"

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type RawWriter interface {
	PutIfChanged(ctx context.Context, key string, payload []byte) (contentstore.RawArtifact, error)
}

// Stage downloads every selected source into the raw layer.
type Stage struct {
	fetcher Fetcher
	store   RawWriter
	emitter *events.Emitter
	logger  *slog.Logger
	rawDir  string
	sources []catalog.Source
	merge   bool

	manifest []ManifestEntry
}

func NewStage(fetcher Fetcher, store RawWriter, emitter *events.Emitter, logger *slog.Logger, rawDir string, sources []catalog.Source) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, logger)
	}
	return &Stage{
		fetcher: fetcher,
		store:   store,
		emitter: emitter,
		logger:  logger,
		rawDir:  rawDir,
		sources: sources,
	}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Prepare(ctx context.Context) (int, error) {
	s.manifest = make([]ManifestEntry, 0, len(s.sources))
	return len(s.sources), nil
}

func (s *Stage) Execute(ctx context.Context, res *pipeline.Result) error {
	changed, unchanged := 0, 0

	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := ManifestEntry{SourceID: src.ID, URL: src.URL, Key: src.StorageKey()}

		art, err := s.ingestOne(ctx, src)
		if err != nil {
			s.logger.WarnContext(ctx, "source failed", "source_id", src.ID, "url", src.URL, "error", err)
			res.AddFailure(src.ID, err)
			entry.Error = err.Error()
			entry.Timestamp = time.Now().UTC()
			s.manifest = append(s.manifest, entry)
			continue
		}

		entry.ContentHash = art.ContentHash
		entry.Changed = art.Changed
		entry.ByteSize = art.ByteSize
		entry.Timestamp = art.WrittenAt
		s.manifest = append(s.manifest, entry)
		res.AddProcessed(1)

		if art.Changed {
			changed++
			ev := events.NewEvent(ctx, config.TopicRawChanged)
			ev.SourceID = src.ID
			ev.Path = art.Key
			ev.ContentHash = art.ContentHash
			s.emitter.Emit(ctx, ev)
		} else {
			unchanged++
		}
		s.logger.InfoContext(ctx, "source ingested", "source_id", src.ID, "changed", art.Changed, "bytes", art.ByteSize)
	}

	path := ManifestPath(s.rawDir)
	entries := s.manifest
	if s.merge {
		entries = mergeManifest(path, entries)
	}
	if err := WriteManifest(path, entries); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	res.SetMeta("changed", changed)
	res.SetMeta("unchanged", unchanged)
	res.SetMeta("manifest", path)
	return nil
}

// MergeManifest makes Execute update the entries of its sources in the
// existing manifest instead of replacing the file.
func (s *Stage) MergeManifest() *Stage {
	s.merge = true
	return s
}

// Manifest returns the entries of the last Execute.
func (s *Stage) Manifest() []ManifestEntry {
	return s.manifest
}

func (s *Stage) ingestOne(ctx context.Context, src catalog.Source) (contentstore.RawArtifact, error) {
	body, err := s.fetcher.Get(ctx, src.URL)
	if err != nil {
		return contentstore.RawArtifact{}, err
	}
	return s.store.PutIfChanged(ctx, src.StorageKey(), body)
}
