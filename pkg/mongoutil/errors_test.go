package mongoutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDuplicateKeyError_Nil(t *testing.T) {
	require.False(t, IsDuplicateKeyError(nil))
}

func TestIsDuplicateKeyError_WriteException(t *testing.T) {
	err := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}},
	}

	require.True(t, IsDuplicateKeyError(err))
}

func TestIsDuplicateKeyError_WriteExceptionOtherCode(t *testing.T) {
	err := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121, Message: "document validation failure"}},
	}

	require.False(t, IsDuplicateKeyError(err))
}

func TestIsDuplicateKeyError_CommandError(t *testing.T) {
	err := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}
	require.True(t, IsDuplicateKeyError(err))
}

func TestIsDuplicateKeyError_WrappedCommandError(t *testing.T) {
	err := fmt.Errorf("upsert: %w", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"})
	require.True(t, IsDuplicateKeyError(err))
}

func TestIsDuplicateKeyError_OpaqueMessageFallback(t *testing.T) {
	err := errors.New("server replied: E11000 duplicate key error collection")
	require.True(t, IsDuplicateKeyError(err))
}

func TestIsDuplicateKeyError_UnrelatedError(t *testing.T) {
	require.False(t, IsDuplicateKeyError(errors.New("connection refused")))
}

func TestIsTransactionsNotSupported_Nil(t *testing.T) {
	require.False(t, IsTransactionsNotSupported(nil))
}

func TestIsTransactionsNotSupported_StandaloneMessage(t *testing.T) {
	err := errors.New("Transaction numbers are only allowed on a replica set member or mongos")
	require.True(t, IsTransactionsNotSupported(err))
}

func TestIsTransactionsNotSupported_IllegalOperationTransaction(t *testing.T) {
	err := errors.New("(IllegalOperation) Transaction is not supported on this deployment")
	require.True(t, IsTransactionsNotSupported(err))
}

func TestIsTransactionsNotSupported_UnrelatedIllegalOperation(t *testing.T) {
	err := errors.New("(IllegalOperation) cannot create unique index in the background")
	require.False(t, IsTransactionsNotSupported(err))
}

func TestIsTransactionsNotSupported_UnrelatedError(t *testing.T) {
	require.False(t, IsTransactionsNotSupported(errors.New("timeout")))
}
