package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"regcorpus/internal/contentstore"
)

const ManifestFile = "ingestion_manifest.json"

// ManifestEntry is the per-source outcome of the last ingestion run.
type ManifestEntry struct {
	SourceID    string    `json:"source_id"`
	URL         string    `json:"url"`
	Key         string    `json:"key,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Changed     bool      `json:"changed"`
	ByteSize    int       `json:"byte_size"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
}

func ManifestPath(rawDir string) string {
	return filepath.Join(rawDir, ManifestFile)
}

func WriteManifest(path string, entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return contentstore.WriteAtomic(path, b)
}

func ReadManifest(path string) ([]ManifestEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return entries, nil
}

// ChangedIDs returns the ids whose payload changed in the last run.
func ChangedIDs(entries []ManifestEntry) []string {
	var ids []string
	for _, e := range entries {
		if e.Changed && e.Error == "" {
			ids = append(ids, e.SourceID)
		}
	}
	return ids
}

// IngestedIDs returns the ids that were fetched and stored without error.
func IngestedIDs(entries []ManifestEntry) []string {
	var ids []string
	for _, e := range entries {
		if e.Error == "" {
			ids = append(ids, e.SourceID)
		}
	}
	return ids
}

// mergeManifest overlays entries onto the manifest at path, keyed by source
// id. Entries for new sources are appended in order.
func mergeManifest(path string, entries []ManifestEntry) []ManifestEntry {
	existing, err := ReadManifest(path)
	if err != nil {
		return entries
	}
	index := make(map[string]int, len(existing))
	for i, e := range existing {
		index[e.SourceID] = i
	}
	for _, e := range entries {
		if i, ok := index[e.SourceID]; ok {
			existing[i] = e
			continue
		}
		index[e.SourceID] = len(existing)
		existing = append(existing, e)
	}
	return existing
}
