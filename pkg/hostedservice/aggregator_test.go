package hostedservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(context.Context) error {
	f.calls++
	return f.err
}

type fakeSubscription struct {
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (f *fakeSubscription) Start(context.Context) error {
	f.started = true
	return f.startErr
}

func (f *fakeSubscription) Stop(context.Context) error {
	f.stopped = true
	return f.stopErr
}

func TestAggregator_Starting_SkipsMigrationsWhenNotConfigured(t *testing.T) {
	runner := &fakeRunner{}
	agg := NewAggregator(runner, nil, Options{ApplyMigrationsOnStartup: false}, nil)

	require.NoError(t, agg.Starting(context.Background()))
	require.Equal(t, 0, runner.calls)
	require.True(t, agg.Ready())
}

func TestAggregator_Starting_RunsMigrationsWhenConfigured(t *testing.T) {
	runner := &fakeRunner{}
	agg := NewAggregator(runner, nil, Options{ApplyMigrationsOnStartup: true}, nil)

	require.NoError(t, agg.Starting(context.Background()))
	require.Equal(t, 1, runner.calls)
	require.True(t, agg.Ready())
}

func TestAggregator_Starting_MigrationFailureIsFatalAndNotReady(t *testing.T) {
	boom := errors.New("boom")
	runner := &fakeRunner{err: boom}
	agg := NewAggregator(runner, nil, Options{ApplyMigrationsOnStartup: true}, nil)

	err := agg.Starting(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.False(t, agg.Ready())
	require.Equal(t, boom.Error(), agg.LastError())
}

func TestAggregator_Starting_NilRunnerIsReady(t *testing.T) {
	agg := NewAggregator(nil, nil, Options{ApplyMigrationsOnStartup: true}, nil)

	require.NoError(t, agg.Starting(context.Background()))
	require.True(t, agg.Ready())
}

func TestAggregator_Started_StartsEverySubscription(t *testing.T) {
	a, b := &fakeSubscription{}, &fakeSubscription{}
	agg := NewAggregator(nil, []Subscription{a, b}, Options{}, nil)

	require.NoError(t, agg.Started(context.Background()))
	require.True(t, a.started)
	require.True(t, b.started)
}

func TestAggregator_Started_AbortsOnFirstFailureButLeavesPriorSubscriptionsRunning(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeSubscription{}, &fakeSubscription{startErr: boom}
	c := &fakeSubscription{}
	agg := NewAggregator(nil, []Subscription{a, b, c}, Options{}, nil)

	err := agg.Started(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.True(t, a.started)
	require.True(t, b.started)
	require.False(t, c.started, "subscriptions after the failing one must not be started")
}

func TestAggregator_Stopping_StopsAllEvenWhenOneFails(t *testing.T) {
	boom := errors.New("boom")
	a, b, c := &fakeSubscription{}, &fakeSubscription{stopErr: boom}, &fakeSubscription{}
	agg := NewAggregator(nil, []Subscription{a, b, c}, Options{}, nil)

	err := agg.Stopping(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.True(t, a.stopped)
	require.True(t, b.stopped)
	require.True(t, c.stopped, "a failing stop must not prevent the remaining subscriptions from stopping")
}

func TestAggregator_Stopping_NoSubscriptionsIsNoError(t *testing.T) {
	agg := NewAggregator(nil, nil, Options{}, nil)
	require.NoError(t, agg.Stopping(context.Background()))
}
