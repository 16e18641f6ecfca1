package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/asookemart/asooke-backend/pkg/logger"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeConsumer struct {
	err     error
	started chan struct{}
}

func (f *fakeConsumer) Run(ctx context.Context) error {
	close(f.started)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func testParams(consumer runner) ServiceParams {
	return ServiceParams{
		Logger:               logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:                   fakePinger{},
		Redis:                fakePinger{},
		PubSub:               fakePinger{},
		NotificationConsumer: consumer,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	params := testParams(&fakeConsumer{started: make(chan struct{})})
	params.PubSub = nil
	_, err := NewService(params)
	assert.Error(t, err)
}

func TestRunFailsFastWhenDependencyIsDown(t *testing.T) {
	consumer := &fakeConsumer{started: make(chan struct{})}
	params := testParams(consumer)
	params.Redis = fakePinger{err: errors.New("connection refused")}
	svc, err := NewService(params)
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRunReportsEveryDownDependency(t *testing.T) {
	params := testParams(&fakeConsumer{started: make(chan struct{})})
	params.DB = fakePinger{err: errors.New("no route to host")}
	params.PubSub = fakePinger{err: errors.New("permission denied")}
	svc, err := NewService(params)
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "database ping failed")
	assert.Contains(t, err.Error(), "pubsub ping failed")
}

func TestRunStopsOnCancel(t *testing.T) {
	consumer := &fakeConsumer{started: make(chan struct{})}
	svc, err := NewService(testParams(consumer))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-consumer.started
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunReturnsConsumerFailure(t *testing.T) {
	consumer := &fakeConsumer{started: make(chan struct{}), err: errors.New("subscription deleted")}
	svc, err := NewService(testParams(consumer))
	require.NoError(t, err)

	err = svc.Run(context.Background())
	assert.EqualError(t, err, "subscription deleted")
}
