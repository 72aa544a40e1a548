package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/index"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Filter is a structured announce search. Zero-valued fields are not included
// in the query.
type Filter struct {
	CategoryID string
	SectorID   string
	Keywords   string
	DateMin    time.Time
	DateMax    time.Time
	PriceMin   float64
	PriceMax   float64
}

// Sort keys accepted by Search. Values are bleve sort expressions; a leading
// minus means descending.
type Sort string

const (
	SortCreatedDesc   Sort = "-" + index.FieldCreatedAt
	SortPublishedDesc Sort = "-" + index.FieldPublishedAt
	SortUpdatedDesc   Sort = "-" + index.FieldUpdatedAt
	SortTitleAsc      Sort = index.FieldTitle
	SortPriceAsc      Sort = index.FieldPrice
	SortPriceDesc     Sort = "-" + index.FieldPrice
)

// Planner translates filters into boolean-AND queries against the index. It
// returns announce ids only; callers resolve them against the announce store,
// which remains the system of record.
type Planner struct {
	store *index.Store
}

func NewPlanner(store *index.Store) *Planner {
	return &Planner{store: store}
}

// Search runs the filter and returns the total match count plus the ids of
// one page. Pages are 1-based; an out-of-range page yields an empty page, not
// an error.
func (p *Planner) Search(ctx context.Context, filter Filter, sort Sort, page, pageSize int) (int64, []string, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	from := (page - 1) * pageSize
	if from < 0 {
		from = 0
	}
	if sort == "" {
		sort = SortUpdatedDesc
	}

	req := bleve.NewSearchRequestOptions(buildQuery(filter), pageSize, from, false)
	req.SortBy([]string{string(sort)})

	res, err := p.store.Index().SearchInContext(ctx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("Planner.Search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return int64(res.Total), ids, nil
}

func buildQuery(filter Filter) query.Query {
	typeQuery := bleve.NewTermQuery(index.DocType)
	typeQuery.SetField(index.FieldType)

	conjuncts := []query.Query{typeQuery}

	if filter.CategoryID != "" {
		q := bleve.NewTermQuery(filter.CategoryID)
		q.SetField(index.FieldCategoryID)
		conjuncts = append(conjuncts, q)
	}
	if filter.SectorID != "" {
		q := bleve.NewTermQuery(filter.SectorID)
		q.SetField(index.FieldSectorID)
		conjuncts = append(conjuncts, q)
	}

	// Short terms match exactly so stop-word-like queries do not over-match;
	// longer terms match as prefixes to support partial typing.
	for _, term := range strings.Fields(strings.ToLower(filter.Keywords)) {
		var q query.FieldableQuery
		if utf8.RuneCountInString(term) <= 2 {
			q = bleve.NewTermQuery(term)
		} else {
			q = bleve.NewPrefixQuery(term)
		}
		q.SetField(index.FieldContent)
		conjuncts = append(conjuncts, q)
	}

	if !filter.DateMin.IsZero() || !filter.DateMax.IsZero() {
		start := time.Unix(0, 0).UTC()
		if !filter.DateMin.IsZero() {
			start = dayStart(filter.DateMin)
		}
		end := dayEnd(time.Now())
		if !filter.DateMax.IsZero() {
			end = dayEnd(filter.DateMax)
		}
		inclusive := true
		q := bleve.NewDateRangeInclusiveQuery(start, end, &inclusive, &inclusive)
		q.SetField(index.FieldDate)
		conjuncts = append(conjuncts, q)
	}

	if filter.PriceMin > 0 || filter.PriceMax > 0 {
		min := filter.PriceMin
		q := bleve.NewNumericRangeInclusiveQuery(&min, priceMax(filter.PriceMax), boolPtr(true), boolPtr(true))
		q.SetField(index.FieldPrice)
		conjuncts = append(conjuncts, q)
	}

	return bleve.NewConjunctionQuery(conjuncts...)
}

// Dates are compared at day granularity.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).Add(24*time.Hour - time.Nanosecond)
}

func priceMax(max float64) *float64 {
	if max <= 0 {
		return nil
	}
	return &max
}

func boolPtr(b bool) *bool {
	return &b
}
