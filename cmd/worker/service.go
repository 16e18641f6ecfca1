package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/asookemart/asooke-backend/pkg/logger"
)

const (
	heartbeatInterval = time.Minute
	readinessTimeout  = 10 * time.Second
)

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger               *logger.Logger
	DB                   pinger
	Redis                pinger
	PubSub               pinger
	NotificationConsumer runner
}

type dependency struct {
	name string
	p    pinger
}

// Service drains the notification subscription and sends the emails that
// ledger transitions queue up.
type Service struct {
	logg      *logger.Logger
	deps      []dependency
	consumers []runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	deps := []dependency{{"database", params.DB}, {"redis", params.Redis}, {"pubsub", params.PubSub}}
	for _, d := range deps {
		if d.p == nil {
			return nil, fmt.Errorf("%s client is required", d.name)
		}
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	return &Service{logg: params.Logger, deps: deps, consumers: []runner{params.NotificationConsumer}}, nil
}

// checkDependencies pings everything at once and reports every failure, not
// just the first.
func (s *Service) checkDependencies(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, d := range s.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.p.Ping(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s ping failed: %w", d.name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}

// Run blocks until ctx is cancelled or a consumer fails. A failing consumer
// cancels its siblings.
func (s *Service) Run(ctx context.Context) error {
	if err := s.checkDependencies(ctx); err != nil {
		s.logg.Error(ctx, "worker dependencies not ready", err)
		return err
	}
	s.logg.Info(ctx, "worker dependencies ready")

	group, gctx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		group.Go(func() error { return c.Run(gctx) })
	}
	group.Go(func() error {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				s.logg.Debug(gctx, "worker.heartbeat")
			}
		}
	})

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "consumer stopped unexpectedly", err)
	}
	return err
}
