// Package chaosmongo is the root of the library: it connects to the
// store, exposes the Helper collaborator pkg/lock, pkg/migrator, and
// pkg/queue are built against, and wires the three primitives together
// behind the configuration surface in pkg/config.
package chaosmongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect dials the store and confirms it is reachable with a bounded
// ping before returning. Additional driver options layer on top of the
// URI-derived ones via options.MergeClientOptions, letting a caller (or
// WithClientSettingsHook, see options.go) add a command monitor, TLS
// config, and so on without this package needing to know about any of it.
func Connect(ctx context.Context, uri string, opts ...*options.ClientOptions) (*mongo.Client, error) {
	clientOpts := options.MergeClientOptions(append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, opts...)...)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}
