package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"roulette-live-client/internal/config"
	"roulette-live-client/internal/models"
)

// RedisStore keeps transfer records and consumed nonces in Redis, keyed by
// the wallet address so several identities can share one instance.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	wallet string
}

func NewRedisStore(cfg *config.Config, wallet string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{
		client: client,
		ctx:    ctx,
		wallet: wallet,
	}, nil
}

func (s *RedisStore) SaveOperation(op *models.TransferOperation) error {
	key := fmt.Sprintf(KeyTransfer, s.wallet, op.Kind)

	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, TTLTransfer).Err()
}

func (s *RedisStore) LoadOperation(kind models.TransferKind) (*models.TransferOperation, error) {
	key := fmt.Sprintf(KeyTransfer, s.wallet, kind)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var op models.TransferOperation
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer record: %v", err)
	}

	return &op, nil
}

func (s *RedisStore) MarkNonceUsed(nonce string) error {
	key := fmt.Sprintf(KeyUsedNonce, s.wallet, nonce)
	return s.client.Set(s.ctx, key, "1", TTLUsedNonce).Err()
}

func (s *RedisStore) NonceUsed(nonce string) (bool, error) {
	key := fmt.Sprintf(KeyUsedNonce, s.wallet, nonce)

	_, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
