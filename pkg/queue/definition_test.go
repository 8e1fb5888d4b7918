package queue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

type widgetCreated struct {
	WidgetID string
}

func TestNewDefinition_DefaultsCollectionNameFromPayloadType(t *testing.T) {
	def, err := NewDefinition[widgetCreated]("")
	require.NoError(t, err)
	require.Contains(t, def.CollectionName, "widgetCreated")
	require.Contains(t, def.PayloadType, "widgetCreated")
}

func TestNewDefinition_HonorsExplicitName(t *testing.T) {
	def, err := NewDefinition[widgetCreated]("widgets_explicit")
	require.NoError(t, err)
	require.Equal(t, "widgets_explicit", def.CollectionName)
}

func TestNewDefinition_RejectsInterfacePayload(t *testing.T) {
	_, err := NewDefinition[any]("")
	require.Error(t, err)
	require.True(t, errors.Is(err, errmodel.ErrConfiguration))
}

func TestDefinition_Validate_RejectsEmptyCollectionName(t *testing.T) {
	def := Definition[widgetCreated]{}
	err := def.validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, errmodel.ErrConfiguration))
}

func TestDefaultCollectionName_IsDeterministic(t *testing.T) {
	a := DefaultCollectionName("example.com/pkg.widgetCreated")
	b := DefaultCollectionName("example.com/pkg.widgetCreated")
	require.Equal(t, a, b)
	require.Contains(t, a, "widgetCreated")
}

func TestDefaultCollectionName_DiffersByType(t *testing.T) {
	a := DefaultCollectionName("example.com/pkg.widgetCreated")
	b := DefaultCollectionName("example.com/pkg.widgetDeleted")
	require.NotEqual(t, a, b)
}

func TestDefaultPrioritizer_SortsAscendingByID(t *testing.T) {
	sort := DefaultPrioritizer.Sort()
	require.Len(t, sort, 1)
	require.Equal(t, "_id", sort[0].Key)
	require.Equal(t, 1, sort[0].Value)
}
