package mongoutil

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IndexInfo is the subset of an existing index's spec this package cares
// about when reconciling a desired index against what is already present.
type IndexInfo struct {
	Name             string `bson:"name"`
	Key              bson.D `bson:"key"`
	Unique           bool   `bson:"unique,omitempty"`
	PartialFilterRaw bson.Raw `bson:"partialFilterExpression,omitempty"`
}

// ListIndexes returns the full index spec list for a collection.
func ListIndexes(ctx context.Context, col *mongo.Collection) ([]IndexInfo, error) {
	cur, err := col.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []IndexInfo

	for cur.Next(ctx) {
		var idx IndexInfo
		if err := cur.Decode(&idx); err != nil {
			return nil, err
		}

		out = append(out, idx)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// KeyEquals reports whether an index's key spec matches the desired
// ordered list of (field, direction) pairs exactly.
func KeyEquals(key bson.D, desired bson.D) bool {
	if len(key) != len(desired) {
		return false
	}

	for i, d := range desired {
		if key[i].Key != d.Key {
			return false
		}

		if !directionEquals(key[i].Value, d.Value) {
			return false
		}
	}

	return true
}

func directionEquals(got, want any) bool {
	wantInt, ok := want.(int32)
	if !ok {
		return got == want
	}

	switch v := got.(type) {
	case int32:
		return v == wantInt
	case int64:
		return v == int64(wantInt)
	case int:
		return int32(v) == wantInt
	case float64:
		return int32(v) == wantInt
	default:
		return false
	}
}

// EnsureIndex creates the desired index if absent, and reconciles by
// dropping and re-creating it if an index with the same name exists but
// disagrees on key spec. An existing index whose name and key spec match
// is left as it is; its uniqueness and partial-filter expression are not
// compared.
func EnsureIndex(ctx context.Context, col *mongo.Collection, model mongo.IndexModel, desiredKey bson.D) error {
	name := ""
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}

	existing, err := ListIndexes(ctx, col)
	if err != nil {
		return fmt.Errorf("mongoutil: list indexes: %w", err)
	}

	for _, idx := range existing {
		if idx.Name != name {
			continue
		}

		if KeyEquals(idx.Key, desiredKey) {
			// same name, same key spec: assume options already reconciled.
			return nil
		}

		// name collides with an incompatible key spec: drop and recreate.
		if _, err := col.Indexes().DropOne(ctx, name); err != nil {
			return fmt.Errorf("mongoutil: drop conflicting index %q: %w", name, err)
		}

		break
	}

	if _, err := col.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("mongoutil: create index %q: %w", name, err)
	}

	return nil
}
