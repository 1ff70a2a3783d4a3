// Package dedup finds saved demands that describe the same opportunity and
// merges them.
package dedup

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/chen893/radar"
)

// DefaultThreshold is the title and description similarity above which two
// demands are reported as duplicates.
const DefaultThreshold = 0.6

// Group is a set of duplicate demands. Keep is the demand the others would
// be merged into.
type Group struct {
	Keep       *radar.Demand   `json:"keep"`
	Duplicates []*radar.Demand `json:"duplicates"`
	Similarity float64         `json:"similarity"`
	Exact      bool            `json:"exact"`
}

// Fingerprint hashes the normalized title of d. Demands whose titles differ
// only in case, punctuation or spacing share a fingerprint.
func Fingerprint(d *radar.Demand) uint64 {
	return xxhash.Sum64String(normalize(d.Solution.Title))
}

// Similarity returns the Jaccard similarity of the character bigrams of a
// and b, between 0 and 1.
func Similarity(a, b string) float64 {
	x, y := bigrams(normalize(a)), bigrams(normalize(b))
	if len(x) == 0 && len(y) == 0 {
		return 1
	}
	inter := 0
	for g := range x {
		if _, ok := y[g]; ok {
			inter++
		}
	}
	union := len(x) + len(y) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Analyze groups demands that share a fingerprint or whose title and
// description are at least threshold similar. A threshold of zero or less
// uses DefaultThreshold. Starred demands are kept in preference to others,
// then older ones. Demands without duplicates are not reported.
func Analyze(demands []*radar.Demand, threshold float64) []Group {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	ordered := slices.Clone(demands)
	slices.SortStableFunc(ordered, func(a, b *radar.Demand) int {
		if a.Starred != b.Starred {
			if a.Starred {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	texts := make([]string, len(ordered))
	prints := make([]uint64, len(ordered))
	for i, d := range ordered {
		texts[i] = d.Solution.Title + " " + d.Solution.Description
		prints[i] = Fingerprint(d)
	}

	taken := make([]bool, len(ordered))
	var groups []Group
	for i, keep := range ordered {
		if taken[i] {
			continue
		}
		g := Group{Keep: keep, Similarity: 1, Exact: true}
		for j := i + 1; j < len(ordered); j++ {
			if taken[j] {
				continue
			}
			sim := 1.0
			exact := prints[i] == prints[j]
			if !exact {
				if sim = Similarity(texts[i], texts[j]); sim < threshold {
					continue
				}
			}
			taken[j] = true
			g.Duplicates = append(g.Duplicates, ordered[j])
			g.Similarity = min(g.Similarity, sim)
			g.Exact = g.Exact && exact
		}
		if len(g.Duplicates) > 0 {
			groups = append(groups, g)
		}
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return groups
}

// Merge returns the update that folds others into keep: evidence and tags
// are unioned, notes appended, and the result is starred if any input was.
func Merge(keep *radar.Demand, others []*radar.Demand) radar.DemandUpdate {
	v := keep.Validation
	sol := keep.Solution
	tags := slices.Clone(keep.Tags)
	notes := keep.Notes
	starred := keep.Starred

	for _, d := range others {
		sol.KeyDifferentiators = union(sol.KeyDifferentiators, d.Solution.KeyDifferentiators)
		v.PainPoints = union(v.PainPoints, d.Validation.PainPoints)
		v.Competitors = union(v.Competitors, d.Validation.Competitors)
		v.CompetitorGaps = union(v.CompetitorGaps, d.Validation.CompetitorGaps)
		v.Quotes = union(v.Quotes, d.Validation.Quotes)
		tags = union(tags, d.Tags)
		if n := strings.TrimSpace(d.Notes); n != "" && !strings.Contains(notes, n) {
			if notes != "" {
				notes += "\n\n"
			}
			notes += n
		}
		starred = starred || d.Starred
	}

	return radar.DemandUpdate{
		Solution:   &sol,
		Validation: &v,
		Starred:    &starred,
		Notes:      &notes,
		Tags:       tags,
	}
}

// Service runs duplicate detection against stored demands.
type Service struct {
	Demands radar.DemandService
}

// NewService creates a new Service.
func NewService(demands radar.DemandService) *Service {
	return &Service{Demands: demands}
}

// Analyze groups duplicates among unarchived demands.
func (s *Service) Analyze(ctx context.Context, threshold float64) ([]Group, error) {
	archived := false
	demands, err := s.Demands.FindDemands(ctx, radar.DemandFilter{Archived: &archived})
	if err != nil {
		return nil, err
	}
	return Analyze(demands, threshold), nil
}

// Confirm merges the demands in duplicateIDs into keepID and deletes them.
func (s *Service) Confirm(ctx context.Context, keepID string, duplicateIDs []string) (*radar.Demand, error) {
	if slices.Contains(duplicateIDs, keepID) {
		return nil, radar.Errorf(radar.EINVALID, "demand %s cannot be merged into itself", keepID)
	}
	if len(duplicateIDs) == 0 {
		return nil, radar.Errorf(radar.EINVALID, "no duplicates to merge")
	}

	keep, err := s.Demands.FindDemandByID(ctx, keepID)
	if err != nil {
		return nil, err
	}
	others := make([]*radar.Demand, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		d, err := s.Demands.FindDemandByID(ctx, id)
		if err != nil {
			return nil, err
		}
		others = append(others, d)
	}

	merged, err := s.Demands.UpdateDemand(ctx, keepID, Merge(keep, others))
	if err != nil {
		return nil, err
	}
	if err := s.Demands.DeleteDemands(ctx, duplicateIDs); err != nil {
		return nil, err
	}
	return merged, nil
}

// normalize lower-cases s and keeps only letters and digits, joining words
// with single spaces.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func bigrams(s string) map[string]struct{} {
	runes := []rune(s)
	out := make(map[string]struct{}, len(runes))
	if len(runes) == 1 {
		out[s] = struct{}{}
		return out
	}
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])] = struct{}{}
	}
	return out
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
