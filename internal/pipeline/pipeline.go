// Package pipeline builds MongoDB aggregation pipelines for the read side of
// the service: joined feeds, derived counts and paginated listings.
package pipeline

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Builder assembles an aggregation pipeline with a fixed stage order:
// filter, joins, derived fields, sort, projection. Callers may register the
// parts in any order; Build always emits them in that sequence so joins never
// run against an already-narrowed document shape.
type Builder struct {
	match   bson.D
	lookups []bson.D
	derived bson.D
	sort    bson.D
	project bson.D
}

// New returns an empty pipeline builder.
func New() *Builder {
	return &Builder{}
}

// Match sets the base collection filter.
func (b *Builder) Match(filter bson.D) *Builder {
	b.match = filter
	return b
}

// Lookup appends a left-outer join stage. Parents with zero matches keep an
// empty array in the As field rather than being dropped.
func (b *Builder) Lookup(l Lookup) *Builder {
	b.lookups = append(b.lookups, l.stage())
	return b
}

// Derive adds a computed field, realised as part of a single $addFields stage.
func (b *Builder) Derive(field string, expr interface{}) *Builder {
	b.derived = append(b.derived, bson.E{Key: field, Value: expr})
	return b
}

// Sort sets the sort key and direction.
func (b *Builder) Sort(key string, descending bool) *Builder {
	dir := 1
	if descending {
		dir = -1
	}
	b.sort = bson.D{{Key: key, Value: dir}}
	return b
}

// Project restricts the output to the provided field specification.
func (b *Builder) Project(fields bson.D) *Builder {
	b.project = fields
	return b
}

// Build emits the assembled pipeline in the fixed stage order.
func (b *Builder) Build() mongo.Pipeline {
	var pl mongo.Pipeline
	if b.match != nil {
		pl = append(pl, bson.D{{Key: "$match", Value: b.match}})
	}
	pl = append(pl, b.lookups...)
	if len(b.derived) > 0 {
		pl = append(pl, bson.D{{Key: "$addFields", Value: b.derived}})
	}
	if b.sort != nil {
		pl = append(pl, bson.D{{Key: "$sort", Value: b.sort}})
	}
	if b.project != nil {
		pl = append(pl, bson.D{{Key: "$project", Value: b.project}})
	}
	return pl
}

// Lookup describes a join against another collection. When Pipeline is set it
// is applied to the joined documents before they are attached.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     mongo.Pipeline
}

func (l Lookup) stage() bson.D {
	spec := bson.D{
		{Key: "from", Value: l.From},
		{Key: "localField", Value: l.LocalField},
		{Key: "foreignField", Value: l.ForeignField},
		{Key: "as", Value: l.As},
	}
	if l.Pipeline != nil {
		spec = append(spec, bson.E{Key: "pipeline", Value: l.Pipeline})
	}
	return bson.D{{Key: "$lookup", Value: spec}}
}

// First unwraps a single-element lookup result to the element itself.
func First(path string) bson.M {
	return bson.M{"$first": "$" + path}
}

// Size counts the elements of an array field, treating a missing or null
// field as empty.
func Size(path string) bson.M {
	return bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + path, bson.A{}}}}
}

// SumOrZero folds a numeric array field with zero identity: the sum of an
// empty or absent sequence is 0, never null.
func SumOrZero(path string) bson.M {
	return bson.M{"$sum": bson.M{"$ifNull": bson.A{"$" + path, bson.A{}}}}
}

// ReorderByIDs restores the stored ordering of a joined array. $lookup makes
// no guarantee the joined documents come back in the localField array's
// order, so each element is tagged with its id's position in the array at
// idsPath and the result is sorted on that ordinal.
func ReorderByIDs(joinedPath, idsPath string) bson.M {
	tagged := bson.M{"$map": bson.M{
		"input": "$" + joinedPath,
		"as":    "doc",
		"in": bson.M{"$mergeObjects": bson.A{
			"$$doc",
			bson.M{"ordinal": bson.M{"$indexOfArray": bson.A{"$" + idsPath, "$$doc._id"}}},
		}},
	}}
	return bson.M{"$sortArray": bson.M{
		"input":  tagged,
		"sortBy": bson.D{{Key: "ordinal", Value: 1}},
	}}
}

// MemberOf evaluates to true when value occurs in the array field at path.
func MemberOf(value interface{}, path string) bson.M {
	return bson.M{"$cond": bson.M{
		"if":   bson.M{"$in": bson.A{value, bson.M{"$ifNull": bson.A{"$" + path, bson.A{}}}}},
		"then": true,
		"else": false,
	}}
}

// EscapeRegex neutralises regex metacharacters so a free-text search term
// matches as a literal substring.
func EscapeRegex(term string) string {
	return regexp.QuoteMeta(term)
}

// SearchRegex builds a case-insensitive literal substring match for term.
func SearchRegex(term string) bson.M {
	return bson.M{"$regex": EscapeRegex(term), "$options": "i"}
}

// SortKey validates a requested sort key against an allow-list, falling back
// to fallback for unknown or empty keys.
func SortKey(requested, fallback string, allowed ...string) string {
	for _, key := range allowed {
		if requested == key {
			return requested
		}
	}
	return fallback
}

// SortDescending interprets the sortType query parameter. Anything other
// than an explicit "asc" sorts newest/largest first.
func SortDescending(sortType string) bool {
	return sortType != "asc"
}
