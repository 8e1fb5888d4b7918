// Package mongoutil holds small driver-error-classification helpers shared
// by pkg/lock, pkg/queue, and pkg/chaosmongo so each does not reimplement its
// own duplicate-key / index-reconciliation logic.
package mongoutil

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsDuplicateKeyError reports whether err is a MongoDB duplicate-key write
// error (code 11000), covering the shapes the driver can return it in:
// a single write error, a bulk write error, or a command error.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}

	// fallback for wrapped/opaque errors that still carry the server message
	return strings.Contains(err.Error(), "E11000")
}

// IsTransactionsNotSupported reports whether err is the server's rejection
// of a transaction on a deployment without replica-set semantics (a
// standalone mongod). Callers use this to downgrade "start transaction" to
// "no session" instead of failing.
func IsTransactionsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	return strings.Contains(msg, "Transaction numbers are only allowed on a replica set member or mongos") ||
		strings.Contains(msg, "IllegalOperation") && strings.Contains(strings.ToLower(msg), "transaction")
}
