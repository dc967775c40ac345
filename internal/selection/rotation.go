package selection

import (
	"context"

	"nonodojo/internal/catalog"
	"nonodojo/internal/session"
)

// Rotation hands out each pool entry once before any repeats. The
// used-id set is persisted per difficulty; when the store fails the
// rotation degrades to its in-memory copy rather than blocking play.
type Rotation struct {
	pools PoolSource
	store session.Store
	cache map[catalog.Difficulty]*session.RotationRecord
}

func NewRotation(pools PoolSource, store session.Store) *Rotation {
	return &Rotation{
		pools: pools,
		store: store,
		cache: map[catalog.Difficulty]*session.RotationRecord{},
	}
}

// Pick returns the first pool entry not yet handed out, records it,
// and persists the updated used set. When the pool is exhausted the
// used set resets to just the first entry and that entry is returned;
// the wraparound is intentional, not an error. Persisted ids of
// puzzles no longer in the pool are dropped.
func (r *Rotation) Pick(ctx context.Context, d catalog.Difficulty) (catalog.Puzzle, error) {
	pool, err := r.pools.Pool(d)
	if err != nil {
		return catalog.Puzzle{}, err
	}
	rec := r.record(ctx, d)
	used := pruneUsed(rec.UsedIDs, pool)

	for _, pz := range pool {
		if used[pz.ID] {
			continue
		}
		rec.UsedIDs = appendUsed(rec.UsedIDs, used, pz.ID)
		rec.LastID = pz.ID
		_ = r.store.SaveRotation(ctx, string(d), *rec)
		return pz, nil
	}

	first := pool[0]
	rec.UsedIDs = []string{first.ID}
	rec.LastID = first.ID
	_ = r.store.SaveRotation(ctx, string(d), *rec)
	return first, nil
}

// Remaining reports how many pool entries the rotation has not yet
// handed out.
func (r *Rotation) Remaining(ctx context.Context, d catalog.Difficulty) (int, error) {
	pool, err := r.pools.Pool(d)
	if err != nil {
		return 0, err
	}
	used := pruneUsed(r.record(ctx, d).UsedIDs, pool)
	return len(pool) - len(used), nil
}

func (r *Rotation) record(ctx context.Context, d catalog.Difficulty) *session.RotationRecord {
	if rec, ok := r.cache[d]; ok {
		return rec
	}
	loaded, err := r.store.LoadRotation(ctx, string(d))
	if err != nil {
		// Corrupt or unreadable rotation state starts a fresh cycle.
		loaded = session.RotationRecord{}
	}
	rec := &loaded
	r.cache[d] = rec
	return rec
}

// pruneUsed keeps only ids still present in the live pool.
func pruneUsed(ids []string, pool []catalog.Puzzle) map[string]bool {
	live := make(map[string]bool, len(pool))
	for _, pz := range pool {
		live[pz.ID] = true
	}
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		if live[id] {
			used[id] = true
		}
	}
	return used
}

func appendUsed(ids []string, used map[string]bool, id string) []string {
	kept := ids[:0]
	for _, existing := range ids {
		if used[existing] {
			kept = append(kept, existing)
		}
	}
	return append(kept, id)
}
