package migrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

func noopApply(context.Context, Helper, mongo.Session) error { return nil }

func TestValidateAndSort_SortsByID(t *testing.T) {
	in := []Migration{
		{ID: "0003-third", Apply: noopApply},
		{ID: "0001-first", Apply: noopApply},
		{ID: "0002-second", Apply: noopApply},
	}

	out, err := validateAndSort(in)
	require.NoError(t, err)
	require.Equal(t, []string{"0001-first", "0002-second", "0003-third"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestValidateAndSort_RejectsEmptyID(t *testing.T) {
	_, err := validateAndSort([]Migration{{ID: "", Apply: noopApply}})
	require.Error(t, err)
	require.True(t, errors.Is(err, errmodel.ErrConfiguration))
}

func TestValidateAndSort_RejectsNilApply(t *testing.T) {
	_, err := validateAndSort([]Migration{{ID: "0001-first"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, errmodel.ErrConfiguration))
}

func TestValidateAndSort_RejectsDuplicateID(t *testing.T) {
	in := []Migration{
		{ID: "0001-first", Apply: noopApply},
		{ID: "0001-first", Apply: noopApply},
	}

	_, err := validateAndSort(in)
	require.Error(t, err)
	require.True(t, errors.Is(err, errmodel.ErrConfiguration))
}

func TestValidateAndSort_EmptyListIsNotAnError(t *testing.T) {
	out, err := validateAndSort(nil)
	require.NoError(t, err)
	require.Nil(t, out)
}
