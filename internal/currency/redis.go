package currency

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

const defaultRatesKey = "payrep:rates"

// RedisSource shares the current rate table between importers through a redis hash.
// When the hash is missing or expired it serves the fallback table.
type RedisSource struct {
	client   *redis.Client
	key      string
	ttl      time.Duration
	fallback RateSource
}

func NewRedisSource(addr, password string, db int, ttl time.Duration, fallback RateSource) *RedisSource {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSource{client: client, key: defaultRatesKey, ttl: ttl, fallback: fallback}
}

func (s *RedisSource) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSource) Close() error {
	return s.client.Close()
}

func (s *RedisSource) Rates(ctx context.Context) (RateTable, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rates from redis: %w", err)
	}
	if len(vals) == 0 {
		if s.fallback == nil {
			return RateTable{}, nil
		}
		return s.fallback.Rates(ctx)
	}
	return decodeHash(vals)
}

// Set replaces the shared table
func (s *RedisSource) Set(ctx context.Context, table RateTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	fields := make(map[string]interface{}, len(table))
	for cur, rate := range table {
		fields[string(cur)] = rate.String()
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store rates in redis: %w", err)
	}
	return nil
}

func decodeHash(vals map[string]string) (RateTable, error) {
	table := make(RateTable, len(vals))
	for code, raw := range vals {
		cur := payment.Currency(code)
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s in redis: %w", code, err)
		}
		table[cur] = rate
	}
	return table, table.Validate()
}
