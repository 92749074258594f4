package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docfusion/internal/db"
)

// HSetMulti upserts multiple hashes in a single DoMulti round-trip.
// Each item succeeds or fails on its own.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) []error {
	if len(items) == 0 {
		return nil
	}

	errs := make([]error, len(items))
	cmds := make([]rueidis.Completed, 0, len(items))
	idx := make([]int, 0, len(items))
	for i, item := range items {
		if len(item.Fields) == 0 {
			errs[i] = &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", item.Key)}
			continue
		}
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
		idx = append(idx, i)
	}
	if len(cmds) == 0 {
		return errs
	}

	results := s.client.DoMulti(ctx, cmds...)
	for j, res := range results {
		if err := res.Error(); err != nil {
			i := idx[j]
			errs[i] = wrap(db.OpHSet, fmt.Errorf("key %s: %w", items[i].Key, err))
		}
	}
	return errs
}

// HGetAll returns all fields of a hash. A missing key yields db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, wrap(db.OpHGetAll, err)
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}

// HGetAllMulti fetches all fields for multiple hashes in a single DoMulti
// round-trip. Missing keys yield empty maps at their position.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))

	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, wrap(db.OpHGetAll, fmt.Errorf("key %s: %w", keys[i], err))
		}
		out[i] = m
	}

	return out, nil
}
