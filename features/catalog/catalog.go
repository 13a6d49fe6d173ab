package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var requiredColumns = []string{"source_id", "url", "domain", "source_type", "publisher"}

// Catalog is the immutable, ordered set of sources loaded from the registry file.
type Catalog struct {
	sources []Source
	byID    map[string]int
}

func LoadFile(path string) (*Catalog, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses the registry. The third return value is a setup error
// (unreadable input or missing header); row problems are collected in the
// second and the offending rows are skipped.
func LoadCSV(r io.Reader) (*Catalog, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("read catalog header: empty file")
		}
		return nil, nil, fmt.Errorf("read catalog header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[columnName(h)] = i
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, nil, fmt.Errorf("catalog header missing column %q", req)
		}
	}

	c := &Catalog{byID: make(map[string]int)}
	var rowErrs []error
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, &RowError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) != len(header) {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(record))})
			continue
		}

		src := fromRecord(header, cols, record)
		switch {
		case src.ID == "":
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: "missing source_id"})
			continue
		case src.URL == "":
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: fmt.Sprintf("source %s: missing url", src.ID)})
			continue
		}
		if _, dup := c.byID[src.ID]; dup {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: fmt.Sprintf("duplicate source_id %s", src.ID)})
			continue
		}

		c.byID[src.ID] = len(c.sources)
		c.sources = append(c.sources, src)
	}
	return c, rowErrs, nil
}

var knownColumns = map[string]bool{
	"source_id": true, "url": true, "domain": true, "source_type": true, "publisher": true,
	"crawl_freq": true, "version": true, "jurisdiction": true,
	"effective_from": true, "effective_to": true, "title": true,
}

func fromRecord(header []string, cols map[string]int, record []string) Source {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	src := Source{
		ID:             get("source_id"),
		URL:            get("url"),
		Domain:         get("domain"),
		Kind:           get("source_type"),
		Publisher:      get("publisher"),
		CrawlFrequency: get("crawl_freq"),
		Version:        get("version"),
		Jurisdiction:   get("jurisdiction"),
		EffectiveFrom:  get("effective_from"),
		EffectiveTo:    get("effective_to"),
		Title:          get("title"),
	}
	for i, h := range header {
		name := columnName(h)
		if knownColumns[name] || name == "" {
			continue
		}
		if src.Attributes == nil {
			src.Attributes = make(map[string]string)
		}
		src.Attributes[name] = strings.TrimSpace(record[i])
	}
	return src
}

// All returns every source in file order.
func (c *Catalog) All() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

func (c *Catalog) Len() int {
	return len(c.sources)
}

func (c *Catalog) Lookup(id string) (Source, error) {
	i, ok := c.byID[id]
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return c.sources[i], nil
}

// Select returns the sources matching f in file order.
func (c *Catalog) Select(f Filter) []Source {
	var out []Source
	for _, s := range c.sources {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// IDs returns the ids of sources in order.
func IDs(sources []Source) []string {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	return ids
}

func columnName(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}
