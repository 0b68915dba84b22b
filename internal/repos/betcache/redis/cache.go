package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/betcache"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/redis/go-redis/v9"
)

var _ betcache.Cache = (*Cache)(nil)

type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func New(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, accountID, betID string) (bets.Record, error) {
	raw, err := c.client.Get(ctx, resultKey(accountID, betID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return bets.Record{}, betcache.ErrMiss
		}

		return bets.Record{}, fmt.Errorf("%w: get cached bet: %w", repos.ErrUnavailable, err)
	}

	var rec bets.Record

	err = json.Unmarshal(raw, &rec)
	if err != nil {
		return bets.Record{}, fmt.Errorf("%w: cached bet %s: %v", repos.ErrCorrupt, betID, err)
	}

	err = rec.Validate()
	if err != nil {
		return bets.Record{}, err
	}

	if rec.AccountID != accountID || rec.ID != betID {
		return bets.Record{}, fmt.Errorf("%w: cached bet %s under wrong key", repos.ErrCorrupt, betID)
	}

	return rec, nil
}

// Put stores rec only if the key is free. Settled bets never change.
func (c *Cache) Put(ctx context.Context, rec bets.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal bet: %w", err)
	}

	err = c.client.SetArgs(ctx, resultKey(rec.AccountID, rec.ID), raw, redis.SetArgs{
		Mode: "NX",
		TTL:  c.ttl,
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: put cached bet: %w", repos.ErrUnavailable, err)
	}

	return nil
}
