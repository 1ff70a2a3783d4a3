// Package fs exports saved demands to the file system.
package fs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/chen893/radar"
	"gopkg.in/yaml.v3"
)

// maxSlugRunes bounds the title part of a demand file name.
const maxSlugRunes = 60

// DemandPath returns the file name for a demand: a slug of its title
// followed by the first eight characters of its ID.
// Example: "Cheap alternative to Tool X" → cheap-alternative-to-tool-x-1a2b3c4d.md
func DemandPath(d *radar.Demand) (string, error) {
	if d.ID == "" {
		return "", radar.Errorf(radar.EINVALID, "demand ID required")
	}
	id := d.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if strings.ContainsAny(id, `/\.`) {
		return "", radar.Errorf(radar.EINVALID, "invalid demand ID %q: path traversal", d.ID)
	}

	name := id + ".md"
	if slug := slugify(d.Solution.Title); slug != "" {
		name = slug + "-" + name
	}
	return filepath.Clean(name), nil
}

// slugify keeps letters and digits of any script, lower-cased, and joins
// the words with hyphens.
func slugify(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	slug := []rune(strings.Join(words, "-"))
	if len(slug) > maxSlugRunes {
		slug = slug[:maxSlugRunes]
	}
	return strings.Trim(string(slug), "-")
}

// frontMatter is the YAML header of an exported demand.
type frontMatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Source    string   `yaml:"source"`
	Page      string   `yaml:"page,omitempty"`
	Starred   bool     `yaml:"starred,omitempty"`
	Archived  bool     `yaml:"archived,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Created   string   `yaml:"created"`
	Extracted string   `yaml:"extraction"`
}

// FormatDemand formats a demand as Markdown with YAML frontmatter.
func FormatDemand(d *radar.Demand) (string, error) {
	header, err := yaml.Marshal(frontMatter{
		ID:        d.ID,
		Title:     d.Solution.Title,
		Source:    d.SourceURL,
		Page:      d.SourceTitle,
		Starred:   d.Starred,
		Archived:  d.Archived,
		Tags:      d.Tags,
		Created:   d.CreatedAt.Format(time.DateOnly),
		Extracted: d.ExtractionID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", d.Solution.Title)
	if d.Solution.Description != "" {
		b.WriteString(d.Solution.Description)
		b.WriteString("\n\n")
	}
	if d.Solution.TargetUser != "" {
		fmt.Fprintf(&b, "**Target user:** %s\n\n", d.Solution.TargetUser)
	}

	writeList(&b, "Key differentiators", d.Solution.KeyDifferentiators)
	writeList(&b, "Pain points", d.Validation.PainPoints)
	writeList(&b, "Competitors", d.Validation.Competitors)
	writeList(&b, "Competitor gaps", d.Validation.CompetitorGaps)

	if len(d.Validation.Quotes) > 0 {
		b.WriteString("## Quotes\n\n")
		for _, q := range d.Validation.Quotes {
			fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(q, "\n", "\n> "))
		}
	}
	if d.Notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(d.Notes)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
