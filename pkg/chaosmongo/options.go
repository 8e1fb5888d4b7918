package chaosmongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chaosmongo/chaosmongo/pkg/config"
)

// Option customizes New's construction beyond what ChaosMongoConfig can
// express in an environment variable.
type Option func(*buildOptions)

type buildOptions struct {
	typeMap    *TypeMap
	clientHook func(*options.ClientOptions)
}

// WithCollectionTypeMap supplies the static type-to-collection-name map
// collaborator.
func WithCollectionTypeMap(m *TypeMap) Option {
	return func(o *buildOptions) { o.typeMap = m }
}

// WithClientSettingsHook lets a caller mutate driver client options
// before Connect dials — e.g. to attach a command monitor from
// pkg/metrics.
func WithClientSettingsHook(fn func(*options.ClientOptions)) Option {
	return func(o *buildOptions) { o.clientHook = fn }
}

// Instance bundles the constructed collaborators New returns: the Helper,
// a Readiness tracker, and the resolved TypeMap.
type Instance struct {
	Helper    *Client
	Readiness *Readiness
	TypeMap   *TypeMap
	HolderID  string
}

// New connects to the store per cfg and applies any Options, returning
// the collaborators pkg/lock, pkg/migrator, and pkg/queue are built
// against. holderID defaults to a fresh random id per process when
// cfg.HolderID is blank.
func New(ctx context.Context, cfg config.ChaosMongoConfig, opts ...Option) (*Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	if bo.typeMap == nil {
		bo.typeMap = NewTypeMap()
	}

	clientOpts := options.Client()
	if bo.clientHook != nil {
		bo.clientHook(clientOpts)
	}

	client, err := Connect(ctx, cfg.URL, clientOpts)
	if err != nil {
		return nil, err
	}

	helper := NewClient(client, cfg.DefaultDatabase)
	readiness := NewReadiness(client, 5*time.Second)

	holderID := cfg.HolderID
	if holderID == "" {
		holderID = uuid.NewString()
	}

	return &Instance{
		Helper:    helper,
		Readiness: readiness,
		TypeMap:   bo.typeMap,
		HolderID:  holderID,
	}, nil
}
