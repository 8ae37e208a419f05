package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        PageRequest
	}{
		{"defaults", "", "", PageRequest{Page: 1, Limit: DefaultPageSize}},
		{"explicit", "3", "25", PageRequest{Page: 3, Limit: 25}},
		{"garbage", "abc", "-", PageRequest{Page: 1, Limit: DefaultPageSize}},
		{"negative", "-2", "-5", PageRequest{Page: 1, Limit: DefaultPageSize}},
		{"over max", "1", "5000", PageRequest{Page: 1, Limit: MaxPageSize}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParsePageRequest(tc.page, tc.limit))
		})
	}
}

func TestNewPageTotals(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, 25, PageRequest{Page: 2, Limit: 10})
	assert.Equal(t, int64(25), page.TotalItems)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 10, page.PageSize)

	exact := NewPage([]int{1, 2}, 20, PageRequest{Page: 1, Limit: 10})
	assert.Equal(t, int64(2), exact.TotalPages)
}

func TestNewPageNilItems(t *testing.T) {
	page := NewPage[int](nil, 0, PageRequest{})
	require.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.TotalPages)
}

// fakeAggregator returns a canned cursor and records the pipeline it was
// handed so tests can inspect the trailing facet stage.
type fakeAggregator struct {
	docs []interface{}
	got  mongo.Pipeline
}

func (f *fakeAggregator) Aggregate(_ context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	f.got = pipeline.(mongo.Pipeline)
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

type titled struct {
	Title string `bson:"title"`
}

func TestPaginateDecodesFacet(t *testing.T) {
	agg := &fakeAggregator{docs: []interface{}{bson.D{
		{Key: "items", Value: bson.A{
			bson.D{{Key: "title", Value: "first"}},
			bson.D{{Key: "title", Value: "second"}},
		}},
		{Key: "total", Value: bson.A{bson.D{{Key: "count", Value: int64(12)}}}},
	}}}

	page, err := Paginate[titled](t.Context(), agg, New().Build(), PageRequest{Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, []titled{{Title: "first"}, {Title: "second"}}, page.Items)
	assert.Equal(t, int64(12), page.TotalItems)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	// The appended facet windows with skip=(page-1)*limit.
	require.NotEmpty(t, agg.got)
	facet := agg.got[len(agg.got)-1]
	require.Equal(t, "$facet", facet[0].Key)
	spec := facet[0].Value.(bson.D)
	items := spec[0].Value.(bson.A)
	skip := items[0].(bson.D)
	assert.Equal(t, "$skip", skip[0].Key)
	assert.Equal(t, 5, skip[0].Value)
}

func TestPaginateEmptyResult(t *testing.T) {
	agg := &fakeAggregator{docs: []interface{}{bson.D{
		{Key: "items", Value: bson.A{}},
		{Key: "total", Value: bson.A{}},
	}}}

	page, err := Paginate[titled](t.Context(), agg, New().Build(), PageRequest{})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.TotalItems)
	assert.Equal(t, int64(0), page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}
