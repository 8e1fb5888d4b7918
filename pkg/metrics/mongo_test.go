package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"

	"github.com/chaosmongo/chaosmongo/pkg/config"
)

func TestExtractCollection_ReadsCommandNameFieldFromRawCommand(t *testing.T) {
	cmd, err := bson.Marshal(bson.D{{Key: "find", Value: "widgets"}, {Key: "filter", Value: bson.D{}}})
	require.NoError(t, err)

	require.Equal(t, "widgets", extractCollection("find", cmd))
}

func TestExtractCollection_EmptyCommandNameOrNilCommandYieldsEmpty(t *testing.T) {
	cmd, err := bson.Marshal(bson.D{{Key: "find", Value: "widgets"}})
	require.NoError(t, err)

	require.Equal(t, "", extractCollection("", cmd))
	require.Equal(t, "", extractCollection("find", nil))
}

func TestExtractCollection_NonStringValueYieldsEmpty(t *testing.T) {
	cmd, err := bson.Marshal(bson.D{{Key: "find", Value: 1}})
	require.NoError(t, err)

	require.Equal(t, "", extractCollection("find", cmd))
}

func TestMongoMetrics_Monitor_NilWhenOperationsMetricsAreNil(t *testing.T) {
	m := NewMongoMetrics(nil)

	require.Nil(t, m.Monitor())
}

func TestMongoMetrics_StartedThenSucceeded_AttributesDurationToStartedCollection(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewMongoMetrics(reg)
	monitor := m.Monitor()
	require.NotNil(t, monitor)

	cmd, err := bson.Marshal(bson.D{{Key: "find", Value: "widgets"}})
	require.NoError(t, err)

	monitor.Started(context.Background(), &event.CommandStartedEvent{
		CommandName: "find",
		Command:     cmd,
		RequestID:   42,
	})

	monitor.Succeeded(context.Background(), &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName: "find",
			RequestID:   42,
			Duration:    5 * time.Millisecond,
		},
	})

	m.mu.Lock()
	_, stillTracked := m.entries[42]
	m.mu.Unlock()
	require.False(t, stillTracked, "lookupCollection should consume the entry")
}

func TestMongoMetrics_LookupCollection_FallsBackToDatabaseThenCommandThenUnknown(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewMongoMetrics(reg)

	require.Equal(t, "mydb", m.lookupCollection(1, "mydb", "find"))
	require.Equal(t, "find", m.lookupCollection(1, "", "find"))
	require.Equal(t, "unknown", m.lookupCollection(1, "", ""))
}

func TestMongoMetrics_CleanupLocked_EvictsEntriesOlderThanMaxAge(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewMongoMetrics(reg)

	m.entries[1] = mongoCommandEntry{collection: "widgets", startedAt: time.Now().Add(-time.Hour)}
	m.entries[2] = mongoCommandEntry{collection: "gadgets", startedAt: time.Now()}

	m.mu.Lock()
	m.cleanupLocked(time.Now())
	m.mu.Unlock()

	_, stale := m.entries[1]
	_, fresh := m.entries[2]
	require.False(t, stale)
	require.True(t, fresh)
}

func TestMongoMetrics_TrimLocked_RemovesAtMostOverflowEntries(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewMongoMetrics(reg)

	m.entries[1] = mongoCommandEntry{collection: "a", startedAt: time.Now()}
	m.entries[2] = mongoCommandEntry{collection: "b", startedAt: time.Now()}
	m.entries[3] = mongoCommandEntry{collection: "c", startedAt: time.Now()}

	m.trimLocked(2)

	require.Len(t, m.entries, 1)
}
