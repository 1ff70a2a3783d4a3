package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/chen893/radar"
	"github.com/chen893/radar/dedup"
	"github.com/chen893/radar/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demand(id, title, description string, age time.Duration) *radar.Demand {
	return &radar.Demand{
		ID:           id,
		ExtractionID: "ex",
		Solution:     radar.Solution{Title: title, Description: description},
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(-age),
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical text is fully similar", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 1.0, dedup.Similarity("cheap invoicing", "Cheap  Invoicing!"), 1e-9)
	})

	t.Run("unrelated text is dissimilar", func(t *testing.T) {
		t.Parallel()
		assert.Less(t, dedup.Similarity("cheap invoicing tool", "dog walker"), 0.2)
	})

	t.Run("works on CJK text", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.5, dedup.Similarity("便宜的记账工具", "便宜的记账软件"), 1e-9)
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("groups titles that differ only in punctuation", func(t *testing.T) {
		t.Parallel()

		a := demand("a", "Cheap alternative to Tool X", "", 2*time.Hour)
		b := demand("b", "cheap alternative to tool x!", "totally different words here", time.Hour)
		c := demand("c", "Dog walking marketplace", "", 0)

		groups := dedup.Analyze([]*radar.Demand{c, b, a}, 0)

		require.Len(t, groups, 1)
		assert.True(t, groups[0].Exact)
		assert.Equal(t, "a", groups[0].Keep.ID)
		require.Len(t, groups[0].Duplicates, 1)
		assert.Equal(t, "b", groups[0].Duplicates[0].ID)
	})

	t.Run("groups near duplicates above the threshold", func(t *testing.T) {
		t.Parallel()

		a := demand("a", "Affordable invoicing for freelancers", "Simple invoices without a subscription", time.Hour)
		b := demand("b", "Affordable invoicing for freelancer", "Simple invoices without subscriptions", 0)

		groups := dedup.Analyze([]*radar.Demand{a, b}, 0.6)

		require.Len(t, groups, 1)
		assert.False(t, groups[0].Exact)
		assert.GreaterOrEqual(t, groups[0].Similarity, 0.6)
		assert.Less(t, groups[0].Similarity, 1.0)
	})

	t.Run("keeps starred demands", func(t *testing.T) {
		t.Parallel()

		a := demand("a", "Same idea", "", time.Hour)
		b := demand("b", "Same idea", "", 0)
		b.Starred = true

		groups := dedup.Analyze([]*radar.Demand{a, b}, 0)

		require.Len(t, groups, 1)
		assert.Equal(t, "b", groups[0].Keep.ID)
	})

	t.Run("reports nothing for distinct demands", func(t *testing.T) {
		t.Parallel()

		groups := dedup.Analyze([]*radar.Demand{
			demand("a", "Invoicing", "", 0),
			demand("b", "Dog walking", "", 0),
		}, 0)

		assert.Empty(t, groups)
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	keep := demand("a", "Idea", "", 0)
	keep.Validation.PainPoints = []string{"too expensive"}
	keep.Tags = []string{"saas"}
	keep.Notes = "first"
	other := demand("b", "Idea", "", 0)
	other.Validation.PainPoints = []string{"too expensive", "slow support"}
	other.Validation.Quotes = []string{"I pay $50 a month"}
	other.Tags = []string{"saas", "finance"}
	other.Notes = "second"
	other.Starred = true

	upd := dedup.Merge(keep, []*radar.Demand{other})

	assert.Equal(t, []string{"too expensive", "slow support"}, upd.Validation.PainPoints)
	assert.Equal(t, []string{"I pay $50 a month"}, upd.Validation.Quotes)
	assert.Equal(t, []string{"saas", "finance"}, upd.Tags)
	assert.Equal(t, "first\n\nsecond", *upd.Notes)
	assert.True(t, *upd.Starred)
	assert.Equal(t, []string{"too expensive"}, keep.Validation.PainPoints)
}

func TestService_Confirm(t *testing.T) {
	t.Parallel()

	t.Run("merges and deletes duplicates", func(t *testing.T) {
		t.Parallel()

		stored := map[string]*radar.Demand{
			"a": demand("a", "Idea", "", 0),
			"b": demand("b", "Idea", "", 0),
		}
		stored["b"].Validation.Competitors = []string{"Tool X"}

		var deleted []string
		var update radar.DemandUpdate
		svc := dedup.NewService(&mock.DemandService{
			FindDemandByIDFn: func(_ context.Context, id string) (*radar.Demand, error) {
				return stored[id], nil
			},
			UpdateDemandFn: func(_ context.Context, id string, upd radar.DemandUpdate) (*radar.Demand, error) {
				update = upd
				d := *stored[id]
				d.Validation = *upd.Validation
				return &d, nil
			},
			DeleteDemandsFn: func(_ context.Context, ids []string) error {
				deleted = ids
				return nil
			},
		})

		merged, err := svc.Confirm(context.Background(), "a", []string{"b"})

		require.NoError(t, err)
		assert.Equal(t, []string{"Tool X"}, merged.Validation.Competitors)
		assert.Equal(t, []string{"Tool X"}, update.Validation.Competitors)
		assert.Equal(t, []string{"b"}, deleted)
	})

	t.Run("rejects merging a demand into itself", func(t *testing.T) {
		t.Parallel()

		svc := dedup.NewService(&mock.DemandService{})

		_, err := svc.Confirm(context.Background(), "a", []string{"a"})

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})
}

func TestService_Analyze(t *testing.T) {
	t.Parallel()

	var filter radar.DemandFilter
	svc := dedup.NewService(&mock.DemandService{
		FindDemandsFn: func(_ context.Context, f radar.DemandFilter) ([]*radar.Demand, error) {
			filter = f
			return []*radar.Demand{demand("a", "Idea", "", 0), demand("b", "Idea", "", 0)}, nil
		},
	})

	groups, err := svc.Analyze(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.NotNil(t, filter.Archived)
	assert.False(t, *filter.Archived)
}
