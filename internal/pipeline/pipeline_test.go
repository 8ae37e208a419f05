package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func stageName(t *testing.T, stage bson.D) string {
	t.Helper()
	require.Len(t, stage, 1)
	return stage[0].Key
}

func TestBuilderStageOrder(t *testing.T) {
	// Registration order is deliberately scrambled; Build must still emit
	// match, lookups, addFields, sort, project.
	pl := New().
		Project(bson.D{{Key: "title", Value: 1}}).
		Sort("createdAt", true).
		Derive("likesCount", Size("likes")).
		Lookup(Lookup{From: "users", LocalField: "owner", ForeignField: "_id", As: "owner"}).
		Match(bson.D{{Key: "isPublished", Value: true}}).
		Build()

	require.Len(t, pl, 5)
	assert.Equal(t, "$match", stageName(t, pl[0]))
	assert.Equal(t, "$lookup", stageName(t, pl[1]))
	assert.Equal(t, "$addFields", stageName(t, pl[2]))
	assert.Equal(t, "$sort", stageName(t, pl[3]))
	assert.Equal(t, "$project", stageName(t, pl[4]))
}

func TestBuilderOmitsEmptyStages(t *testing.T) {
	pl := New().
		Lookup(Lookup{From: "likes", LocalField: "_id", ForeignField: "video", As: "likes"}).
		Build()

	require.Len(t, pl, 1)
	assert.Equal(t, "$lookup", stageName(t, pl[0]))
}

func TestBuilderLookupOrderPreserved(t *testing.T) {
	pl := New().
		Lookup(Lookup{From: "likes", LocalField: "_id", ForeignField: "video", As: "likes"}).
		Lookup(Lookup{From: "users", LocalField: "owner", ForeignField: "_id", As: "owner"}).
		Build()

	require.Len(t, pl, 2)
	first := pl[0][0].Value.(bson.D)
	second := pl[1][0].Value.(bson.D)
	assert.Equal(t, "likes", first[0].Value)
	assert.Equal(t, "users", second[0].Value)
}

func TestLookupStageIncludesPipelineOnlyWhenSet(t *testing.T) {
	plain := Lookup{From: "users", LocalField: "owner", ForeignField: "_id", As: "owner"}.stage()
	spec := plain[0].Value.(bson.D)
	for _, field := range spec {
		assert.NotEqual(t, "pipeline", field.Key)
	}

	nested := Lookup{
		From: "videos", LocalField: "_id", ForeignField: "owner", As: "videos",
		Pipeline: New().Match(bson.D{{Key: "isPublished", Value: true}}).Build(),
	}.stage()
	spec = nested[0].Value.(bson.D)
	assert.Equal(t, "pipeline", spec[len(spec)-1].Key)
}

func TestSizeTreatsMissingAsEmpty(t *testing.T) {
	expr := Size("likes")
	inner, ok := expr["$size"].(bson.M)
	require.True(t, ok)
	fallback, ok := inner["$ifNull"].(bson.A)
	require.True(t, ok)
	assert.Equal(t, "$likes", fallback[0])
	assert.Equal(t, bson.A{}, fallback[1])
}

func TestSumOrZeroTreatsMissingAsEmpty(t *testing.T) {
	expr := SumOrZero("videos.views")
	inner, ok := expr["$sum"].(bson.M)
	require.True(t, ok)
	fallback, ok := inner["$ifNull"].(bson.A)
	require.True(t, ok)
	assert.Equal(t, "$videos.views", fallback[0])
}

func TestReorderByIDsSortsByStoredPosition(t *testing.T) {
	expr := ReorderByIDs("videoDocs", "videos")

	sort, ok := expr["$sortArray"].(bson.M)
	require.True(t, ok, "reorder must sort, joins do not preserve array order")
	assert.Equal(t, bson.D{{Key: "ordinal", Value: 1}}, sort["sortBy"])

	tag, ok := sort["input"].(bson.M)
	require.True(t, ok)
	mapped, ok := tag["$map"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "$videoDocs", mapped["input"])

	merged, ok := mapped["in"].(bson.M)
	require.True(t, ok)
	parts, ok := merged["$mergeObjects"].(bson.A)
	require.True(t, ok)
	require.Len(t, parts, 2)

	ordinal := parts[1].(bson.M)["ordinal"].(bson.M)
	assert.Equal(t, bson.A{"$videos", "$$doc._id"}, ordinal["$indexOfArray"])
}

func TestEscapeRegex(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"plain", "plain"},
		{"c++ tutorial", `c\+\+ tutorial`},
		{"a.b*c", `a\.b\*c`},
		{"(group)|alt", `\(group\)\|alt`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, EscapeRegex(tc.term), "term %q", tc.term)
	}
}

func TestSearchRegexCaseInsensitive(t *testing.T) {
	m := SearchRegex("go+")
	assert.Equal(t, `go\+`, m["$regex"])
	assert.Equal(t, "i", m["$options"])
}

func TestSortKey(t *testing.T) {
	assert.Equal(t, "views", SortKey("views", "createdAt", "views", "duration"))
	assert.Equal(t, "createdAt", SortKey("passwordHash", "createdAt", "views", "duration"))
	assert.Equal(t, "createdAt", SortKey("", "createdAt", "views", "duration"))
}

func TestSortDescending(t *testing.T) {
	assert.False(t, SortDescending("asc"))
	assert.True(t, SortDescending("desc"))
	assert.True(t, SortDescending(""))
	assert.True(t, SortDescending("ASC"))
}
