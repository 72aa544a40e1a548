package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/index"
)

func newTestStore(t *testing.T) *index.Store {
	t.Helper()
	store, err := index.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func indexDoc(t *testing.T, store *index.Store, doc *index.Document) {
	t.Helper()
	require.NoError(t, store.Index().Index(doc.AnnounceID, doc.Fields()))
}

func TestSearchPagination(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		indexDoc(t, store, &index.Document{
			AnnounceID: fmt.Sprintf("a%02d", i),
			CategoryID: "cat-1",
			Content:    "garden chair",
			Date:       base,
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	planner := NewPlanner(store)

	total, ids, err := planner.Search(ctx, Filter{}, SortUpdatedDesc, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, ids, 5)

	total, ids, err = planner.Search(ctx, Filter{}, SortUpdatedDesc, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Empty(t, ids)

	// Page zero and negative pages clamp to the first page.
	_, first, err := planner.Search(ctx, Filter{}, SortUpdatedDesc, 1, 10)
	require.NoError(t, err)
	_, clamped, err := planner.Search(ctx, Filter{}, SortUpdatedDesc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, first, clamped)
}

func TestSearchDefaultSortIsUpdatedDesc(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	indexDoc(t, store, &index.Document{AnnounceID: "old", Content: "table", Date: base, UpdatedAt: base})
	indexDoc(t, store, &index.Document{AnnounceID: "new", Content: "table", Date: base, UpdatedAt: base.Add(time.Hour)})
	planner := NewPlanner(store)

	_, ids, err := planner.Search(ctx, Filter{}, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)
}

func TestSearchKeywordPrefixAndExact(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	indexDoc(t, store, &index.Document{AnnounceID: "a1", Content: "vintage bicycle ox leather saddle", Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "a2", Content: "bicycles available", Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "a3", Content: "oxford dictionary", Date: base})
	planner := NewPlanner(store)

	// Long terms match as prefixes.
	_, ids, err := planner.Search(ctx, Filter{Keywords: "bicycle"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)

	// Short terms match only the exact token, not as a prefix.
	_, ids, err = planner.Search(ctx, Filter{Keywords: "ox"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1"}, ids)

	// Multiple terms conjoin.
	_, ids, err = planner.Search(ctx, Filter{Keywords: "vintage bicycle"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1"}, ids)

	// Keywords are matched case-insensitively.
	_, ids, err = planner.Search(ctx, Filter{Keywords: "VINTAGE"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1"}, ids)
}

func TestSearchCategoryAndSector(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	indexDoc(t, store, &index.Document{AnnounceID: "a1", CategoryID: "cat-1", SectorID: "sec-1", Content: "x", Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "a2", CategoryID: "cat-2", SectorID: "sec-1", Content: "x", Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "a3", CategoryID: "cat-3", SectorID: "sec-2", Content: "x", Date: base})
	planner := NewPlanner(store)

	_, ids, err := planner.Search(ctx, Filter{CategoryID: "cat-2"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a2"}, ids)

	_, ids, err = planner.Search(ctx, Filter{SectorID: "sec-1"}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}

func TestSearchDateRangeIsDayGranular(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	indexDoc(t, store, &index.Document{
		AnnounceID: "a1", Content: "x",
		Date: time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC),
	})
	indexDoc(t, store, &index.Document{
		AnnounceID: "a2", Content: "x",
		Date: time.Date(2024, 6, 12, 0, 15, 0, 0, time.UTC),
	})
	planner := NewPlanner(store)

	// A bound anywhere within a day covers the whole day.
	_, ids, err := planner.Search(ctx, Filter{
		DateMin: time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC),
		DateMax: time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC),
	}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1"}, ids)

	// Only a lower bound: everything from that day forward.
	_, ids, err = planner.Search(ctx, Filter{
		DateMin: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
	}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a2"}, ids)
}

func TestSearchPriceBounds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	indexDoc(t, store, &index.Document{AnnounceID: "cheap", Content: "x", Price: 10, Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "mid", Content: "x", Price: 50, Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "dear", Content: "x", Price: 200, Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "free", Content: "x", Price: 0, Date: base})
	planner := NewPlanner(store)

	_, ids, err := planner.Search(ctx, Filter{PriceMin: 20, PriceMax: 100}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mid"}, ids)

	// An upper bound alone still excludes unpriced announces.
	_, ids, err = planner.Search(ctx, Filter{PriceMax: 60}, "", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cheap", "mid"}, ids)

	// No bounds set: price is not filtered at all.
	total, _, err := planner.Search(ctx, Filter{}, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestSearchSortByPrice(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	indexDoc(t, store, &index.Document{AnnounceID: "b", Content: "x", Price: 50, Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "a", Content: "x", Price: 10, Date: base})
	indexDoc(t, store, &index.Document{AnnounceID: "c", Content: "x", Price: 200, Date: base})
	planner := NewPlanner(store)

	_, ids, err := planner.Search(ctx, Filter{PriceMin: 1}, SortPriceAsc, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	_, ids, err = planner.Search(ctx, Filter{PriceMin: 1}, SortPriceDesc, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids)
}
