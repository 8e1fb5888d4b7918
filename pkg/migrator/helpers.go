package migrator

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UniqueStringFieldDiagnostics reports why adding a unique index on a
// string field might fail: which values collide, and how many documents
// have the field unset (null sorts together under many unique-index
// definitions, so "null" is its own axis of diagnosis).
type UniqueStringFieldDiagnostics struct {
	DuplicateStrings []bson.M
	NullCount        int64
}

// DiagnoseUniqueStringField is a migration-authoring convenience: before
// adding a unique index, a migration can call this to decide whether the
// data needs cleanup first.
func DiagnoseUniqueStringField(ctx context.Context, col *mongo.Collection, field string, limit int) (UniqueStringFieldDiagnostics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "c", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "c", Value: bson.D{{Key: "$gt", Value: 1}}}}}},
		{{Key: "$limit", Value: limit}},
	}

	dupCur, err := col.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return UniqueStringFieldDiagnostics{}, err
	}
	defer dupCur.Close(ctx)

	var dups []bson.M
	if err := dupCur.All(ctx, &dups); err != nil {
		return UniqueStringFieldDiagnostics{}, err
	}

	nullCount, err := col.CountDocuments(ctx, bson.D{{Key: field, Value: nil}})
	if err != nil {
		return UniqueStringFieldDiagnostics{}, err
	}

	return UniqueStringFieldDiagnostics{DuplicateStrings: dups, NullCount: nullCount}, nil
}
