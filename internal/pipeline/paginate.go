package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultPageSize applies when no limit is requested.
	DefaultPageSize = 10
	// MaxPageSize bounds the work a single request can demand.
	MaxPageSize = 100
)

// PageRequest identifies a page window. Zero or negative values are
// normalised to the first page with the default size.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest reads page/limit query parameters, tolerating missing or
// malformed values.
func ParsePageRequest(page, limit string) PageRequest {
	req := PageRequest{}
	if n, err := strconv.Atoi(page); err == nil {
		req.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil {
		req.Limit = n
	}
	return req.normalize()
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Page is one window of a paginated result set together with totals computed
// independently of the window.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

// NewPage assembles a Page from a fetched window and the total match count.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	req = req.normalize()
	if items == nil {
		items = []T{}
	}
	totalPages := total / int64(req.Limit)
	if total%int64(req.Limit) != 0 {
		totalPages++
	}
	return Page[T]{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: req.Page,
		PageSize:    req.Limit,
	}
}

// Aggregator is the slice of *mongo.Collection required to run pipelines.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

type facetResult[T any] struct {
	Items []T `bson:"items"`
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// Paginate executes pl against coll with a trailing $facet stage that
// computes the total match count and the requested window in a single pass.
// The skip/limit window applies after every filtering, joining and sorting
// stage so totals reflect the full result set.
func Paginate[T any](ctx context.Context, coll Aggregator, pl mongo.Pipeline, req PageRequest) (Page[T], error) {
	req = req.normalize()
	skip := (req.Page - 1) * req.Limit

	faceted := append(pl, bson.D{{Key: "$facet", Value: bson.D{
		{Key: "items", Value: bson.A{
			bson.D{{Key: "$skip", Value: skip}},
			bson.D{{Key: "$limit", Value: req.Limit}},
		}},
		{Key: "total", Value: bson.A{
			bson.D{{Key: "$count", Value: "count"}},
		}},
	}}})

	cursor, err := coll.Aggregate(ctx, faceted)
	if err != nil {
		return Page[T]{}, fmt.Errorf("run paginated aggregation: %w", err)
	}

	var results []facetResult[T]
	if err := cursor.All(ctx, &results); err != nil {
		return Page[T]{}, fmt.Errorf("decode paginated aggregation: %w", err)
	}

	if len(results) == 0 {
		return NewPage[T](nil, 0, req), nil
	}

	var total int64
	if len(results[0].Total) > 0 {
		total = results[0].Total[0].Count
	}

	return NewPage(results[0].Items, total, req), nil
}
