package sqlite_test

import (
	"context"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDemand(ex *radar.Extraction, title string) *radar.Demand {
	return radar.NewDemand(ex, radar.DemandCandidate{
		Solution: radar.Solution{
			Title:       title,
			Description: "Automates the boring part of freelancing",
			TargetUser:  "freelancers",
		},
		Validation: radar.Validation{
			PainPoints: []string{"chasing late payments"},
			Quotes:     []string{"I spend hours every month"},
		},
	})
}

func TestDemandService_CreateDemands(t *testing.T) {
	t.Parallel()

	t.Run("creates demands with source fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ex := createExtraction(t, db, "https://www.reddit.com/r/freelance/comments/1")
		svc := sqlite.NewDemandService(db)
		d := newDemand(ex, "Invoice bot")
		d.Tags = []string{"fintech"}

		require.NoError(t, svc.CreateDemands(context.Background(), []*radar.Demand{d}))

		found, err := svc.FindDemandByID(context.Background(), d.ID)
		require.NoError(t, err)
		assert.Equal(t, ex.ID, found.ExtractionID)
		assert.Equal(t, ex.URL, found.SourceURL)
		assert.Equal(t, ex.Title, found.SourceTitle)
		assert.Equal(t, "Invoice bot", found.Solution.Title)
		assert.Equal(t, []string{"chasing late payments"}, found.Validation.PainPoints)
		assert.Equal(t, []string{"fintech"}, found.Tags)
		assert.False(t, found.CreatedAt.IsZero())
	})

	t.Run("keeps candidate IDs and rejects saving them twice", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ex := createExtraction(t, db, "https://example.com/1")
		svc := sqlite.NewDemandService(db)
		d := newDemand(ex, "Invoice bot")
		d.ID = "cand-1"
		require.NoError(t, svc.CreateDemands(context.Background(), []*radar.Demand{d}))

		again := newDemand(ex, "Invoice bot")
		again.ID = "cand-1"
		other := newDemand(ex, "Other")
		err := svc.CreateDemands(context.Background(), []*radar.Demand{other, again})

		assert.Equal(t, radar.ECONFLICT, radar.ErrorCode(err))
		all, err := svc.FindDemands(context.Background(), radar.DemandFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1, "failed batch must not be partially written")
	})

	t.Run("rejects demands for unknown extractions", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		d := newDemand(&radar.Extraction{ID: "missing"}, "Orphan")

		err := sqlite.NewDemandService(db).CreateDemands(context.Background(), []*radar.Demand{d})

		assert.Error(t, err)
	})

	t.Run("validates every demand", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		err := sqlite.NewDemandService(db).CreateDemands(context.Background(), []*radar.Demand{{}})

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})
}

func TestDemandService_FindDemands(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*sqlite.DemandService, []*radar.Demand) {
		t.Helper()
		db := setupTestDB(t)
		ex := createExtraction(t, db, "https://example.com/1")
		svc := sqlite.NewDemandService(db)

		invoice := newDemand(ex, "Invoice bot")
		notes := newDemand(ex, "Meeting notes search")
		notes.Solution.Description = "Finds decisions buried in call transcripts"
		notes.Validation.PainPoints = []string{"notes get lost"}
		archived := newDemand(ex, "Archived invoice idea")
		archived.Archived = true
		starred := newDemand(ex, "Starred thing")
		starred.Starred = true
		starred.Validation.PainPoints = []string{"Invoices arrive late"}

		all := []*radar.Demand{invoice, notes, archived, starred}
		require.NoError(t, svc.CreateDemands(context.Background(), all))
		return svc, all
	}

	t.Run("searches title, description and pain points case-insensitively", func(t *testing.T) {
		t.Parallel()

		svc, all := setup(t)

		found, err := svc.FindDemands(context.Background(), radar.DemandFilter{Query: "INVOICE"})

		require.NoError(t, err)
		var ids []string
		for _, d := range found {
			ids = append(ids, d.ID)
		}
		assert.ElementsMatch(t, []string{all[0].ID, all[3].ID}, ids, "archived demands are excluded from search")

		found, err = svc.FindDemands(context.Background(), radar.DemandFilter{Query: "transcripts"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, all[1].ID, found[0].ID)
	})

	t.Run("search includes archived demands when asked", func(t *testing.T) {
		t.Parallel()

		svc, all := setup(t)

		found, err := svc.FindDemands(context.Background(), radar.DemandFilter{Query: "invoice", Archived: ptr(true)})

		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, all[2].ID, found[0].ID)
	})

	t.Run("filters by starred", func(t *testing.T) {
		t.Parallel()

		svc, all := setup(t)

		found, err := svc.FindDemands(context.Background(), radar.DemandFilter{Starred: ptr(true)})

		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, all[3].ID, found[0].ID)
	})

	t.Run("filters by extraction", func(t *testing.T) {
		t.Parallel()

		svc, _ := setup(t)

		found, err := svc.FindDemands(context.Background(), radar.DemandFilter{ExtractionID: ptr("other")})

		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestDemandService_UpdateDemand(t *testing.T) {
	t.Parallel()

	t.Run("updates curation fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ex := createExtraction(t, db, "https://example.com/1")
		svc := sqlite.NewDemandService(db)
		d := newDemand(ex, "Invoice bot")
		require.NoError(t, svc.CreateDemands(context.Background(), []*radar.Demand{d}))

		_, err := svc.UpdateDemand(context.Background(), d.ID, radar.DemandUpdate{
			Starred: ptr(true),
			Notes:   ptr("talk to 5 freelancers"),
			Tags:    []string{"b2b", "fintech"},
		})
		require.NoError(t, err)

		found, err := svc.FindDemandByID(context.Background(), d.ID)
		require.NoError(t, err)
		assert.True(t, found.Starred)
		assert.Equal(t, "talk to 5 freelancers", found.Notes)
		assert.Equal(t, []string{"b2b", "fintech"}, found.Tags)
		assert.Equal(t, "Invoice bot", found.Solution.Title)
	})

	t.Run("rejects clearing the title", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ex := createExtraction(t, db, "https://example.com/1")
		svc := sqlite.NewDemandService(db)
		d := newDemand(ex, "Invoice bot")
		require.NoError(t, svc.CreateDemands(context.Background(), []*radar.Demand{d}))

		_, err := svc.UpdateDemand(context.Background(), d.ID, radar.DemandUpdate{Solution: &radar.Solution{}})

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})
}

func TestDemandService_DeleteDemand(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ex := createExtraction(t, db, "https://example.com/1")
	svc := sqlite.NewDemandService(db)
	a, b := newDemand(ex, "A"), newDemand(ex, "B")
	require.NoError(t, svc.CreateDemands(context.Background(), []*radar.Demand{a, b}))

	require.NoError(t, svc.DeleteDemand(context.Background(), a.ID))
	assert.Equal(t, radar.ENOTFOUND, radar.ErrorCode(svc.DeleteDemand(context.Background(), a.ID)))

	require.NoError(t, svc.DeleteDemands(context.Background(), []string{b.ID}))
	left, err := svc.FindDemands(context.Background(), radar.DemandFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)
}
