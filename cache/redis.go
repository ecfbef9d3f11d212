// Package cache provides the Redis-backed idempotency store, for
// deployments that prefer a key-value record over Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "code_record:"

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // Default TTL for records without an expiry
}

// RedisRecordStore implements stores.RecordStore on Redis.
type RedisRecordStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRecordStore(config RedisConfig) (*RedisRecordStore, error) {
	portStr := strconv.Itoa(config.Port)

	addr := config.Host + ":" + portStr
	if config.Port == 0 {
		addr = config.Host + ":6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &RedisRecordStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (s *RedisRecordStore) Get(ctx context.Context, bookingID string) (*models.CodeRecord, error) {
	data, err := s.client.Get(ctx, recordKeyPrefix+bookingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record models.CodeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisRecordStore) Put(ctx context.Context, record *models.CodeRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if record.ExpiresAt != nil {
		if until := time.Until(*record.ExpiresAt); until > 0 {
			ttl = until
		}
	}

	return s.client.Set(ctx, recordKeyPrefix+record.BookingID, data, ttl).Err()
}

func (s *RedisRecordStore) Delete(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, recordKeyPrefix+bookingID).Err()
}

func (s *RedisRecordStore) Close() error {
	return s.client.Close()
}
