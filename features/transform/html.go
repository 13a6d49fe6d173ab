package transform

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"regcorpus/features/catalog"
	"regcorpus/internal/text"
)

const DefaultMaxSectionChars = 3000

var (
	sectionIDRe = regexp.MustCompile(`§\s*(\d+(?:-\d+)?[a-z]?)`)
	chapterRe   = regexp.MustCompile(`(?i)(?:kapittel|kapitel|chapter)\s*(\d+)`)
)

const headingSelector = "h1, h2, h3, h4"

// HTMLParser splits an HTML document into heading-delimited sections.
type HTMLParser struct {
	maxSectionChars int
}

func NewHTMLParser(maxSectionChars int) *HTMLParser {
	return &HTMLParser{maxSectionChars: maxSectionChars}
}

func (p *HTMLParser) Parse(ctx context.Context, src catalog.Source, raw []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, noscript, header, footer").Remove()

	title := text.Normalize(doc.Find("title").First().Text())
	if title == "" {
		title = text.Normalize(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = src.Title
	}

	var records []Record
	chapter := ""
	headings := doc.Find(headingSelector)

	headings.EachWithBreak(func(i int, h *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		heading := text.Normalize(text.StripNavigation(h.Text()))
		if m := chapterRe.FindStringSubmatch(heading); m != nil {
			chapter = m[1]
		}

		var body strings.Builder
		h.NextUntil(headingSelector).Each(func(_ int, s *goquery.Selection) {
			t := strings.TrimSpace(text.StripNavigation(s.Text()))
			if t == "" {
				return
			}
			if body.Len() > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(t)
		})

		sectionID := sectionIDFor(h, heading, i)
		records = append(records, p.sectionRecords(heading, body.String(), sectionID, chapter, title)...)
		return true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if headings.Length() == 0 {
		body := strings.TrimSpace(text.StripNavigation(doc.Find("body").Text()))
		records = p.sectionRecords(title, body, "body", "", title)
	}
	return records, nil
}

func (p *HTMLParser) sectionRecords(heading, body, sectionID, chapter, title string) []Record {
	parts := text.SplitProse(body, p.maxSectionChars)
	if len(parts) == 0 {
		return nil
	}

	path := sectionID
	if chapter != "" {
		path = "Kapittel " + chapter + " " + sectionID
	}

	out := make([]Record, 0, len(parts))
	for i, part := range parts {
		rec := Record{
			"heading":    heading,
			"text":       text.Normalize(part),
			"section_id": sectionID,
			"chapter":    chapter,
			"title":      title,
			"path":       path,
		}
		if len(parts) > 1 {
			rec["part"] = i + 1
		}
		out = append(out, rec)
	}
	return out
}

func sectionIDFor(h *goquery.Selection, heading string, index int) string {
	if m := sectionIDRe.FindStringSubmatch(heading); m != nil {
		return "§ " + m[1]
	}
	if id, ok := h.Attr("id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	if m := chapterRe.FindStringSubmatch(heading); m != nil {
		return "kapittel-" + m[1]
	}
	return fmt.Sprintf("section-%d", index+1)
}
