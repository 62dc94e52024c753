package main

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	postgresRepo "github.com/nxfinance/loans/internal/adapter/repository/postgres"
	redisRepo "github.com/nxfinance/loans/internal/adapter/repository/redis"
	"github.com/nxfinance/loans/internal/infrastructure/config"
	"github.com/nxfinance/loans/internal/infrastructure/eventpublisher"
	"github.com/nxfinance/loans/internal/usecase/mocks"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestLoanTypeRepository(t *testing.T) {
	_, client := newRedis(t)
	base := mocks.NewMockLoanTypeRepository(gomock.NewController(t))
	cache := redisRepo.NewCache(client)

	repo := loanTypeRepository(&config.Config{}, base, cache, zerolog.Nop())
	if repo != base {
		t.Fatalf("expected uncached repository when TTL is zero")
	}

	repo = loanTypeRepository(&config.Config{CatalogCacheTTL: time.Minute}, base, cache, zerolog.Nop())
	if _, ok := repo.(*redisRepo.CachedLoanTypeRepository); !ok {
		t.Fatalf("expected cached repository, got %T", repo)
	}
}

func TestOutboxRepository(t *testing.T) {
	base := mocks.NewMockOutboxRepository()

	if got := outboxRepository(&config.Config{OutboxEnabled: true}, base); got != base {
		t.Fatalf("expected configured outbox when enabled")
	}
	if _, ok := outboxRepository(&config.Config{}, base).(*postgresRepo.NullOutboxRepository); !ok {
		t.Fatalf("expected null outbox when disabled")
	}
}

func TestEventSink(t *testing.T) {
	_, client := newRedis(t)

	if _, ok := eventSink(&config.Config{EventSink: "log"}, client, zerolog.Nop()).(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected log publisher")
	}
	if _, ok := eventSink(&config.Config{EventSink: "redis"}, client, zerolog.Nop()).(*eventpublisher.RedisStreamPublisher); !ok {
		t.Fatalf("expected redis stream publisher")
	}
}

func TestHealthChecks(t *testing.T) {
	s, client := newRedis(t)
	dbErr := errors.New("db down")

	checks := healthChecks(func(ctx context.Context) error { return dbErr }, client)
	if len(checks) != 2 {
		t.Fatalf("expected two checks, got %d", len(checks))
	}
	if err := checks["postgres"](context.Background()); !errors.Is(err, dbErr) {
		t.Fatalf("expected postgres check to return db error, got %v", err)
	}
	if err := checks["redis"](context.Background()); err != nil {
		t.Fatalf("expected redis check to pass, got %v", err)
	}

	s.Close()
	if err := checks["redis"](context.Background()); err == nil {
		t.Fatalf("expected redis check to fail once server is down")
	}
}
