package chaosmongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/mongoutil"
)

// Helper is the connection collaborator pkg/lock, pkg/migrator, and
// pkg/queue are built against. TryStartSession and TryStartTransaction
// must return false rather than error on a deployment that does not
// support sessions/transactions (a standalone mongod) —
// callers downgrade to running without a session instead of failing.
type Helper interface {
	Client() *mongo.Client
	Database() *mongo.Database
	Collection(name string) *mongo.Collection
	TryStartSession() (mongo.Session, bool)
	TryStartTransaction(ctx context.Context, sess mongo.Session) (context.Context, bool)
}

// Client is the production Helper, backed by a connected *mongo.Client
// and a resolved *mongo.Database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient wraps an already-connected client and selects a database.
func NewClient(client *mongo.Client, databaseName string) *Client {
	return &Client{client: client, db: client.Database(databaseName)}
}

func (c *Client) Client() *mongo.Client { return c.client }

func (c *Client) Database() *mongo.Database { return c.db }

func (c *Client) Collection(name string) *mongo.Collection { return c.db.Collection(name) }

// TryStartSession starts a driver session, reporting false (never an
// error) if the deployment does not support sessions.
func (c *Client) TryStartSession() (mongo.Session, bool) {
	sess, err := c.client.StartSession()
	if err != nil {
		return nil, false
	}

	return sess, true
}

// TryStartTransaction starts a transaction on an already-started session
// and returns a context bound to it via mongo.NewSessionContext so
// subsequent driver calls using that context participate automatically.
// Reports false, never an error, if the server rejects transactions
// (standalone deployment).
func (c *Client) TryStartTransaction(ctx context.Context, sess mongo.Session) (context.Context, bool) {
	if err := sess.StartTransaction(); err != nil {
		if mongoutil.IsTransactionsNotSupported(err) {
			return ctx, false
		}

		return ctx, false
	}

	return mongo.NewSessionContext(ctx, sess), true
}

var _ Helper = (*Client)(nil)
