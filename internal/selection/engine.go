// Package selection decides which puzzle the player gets: the
// deterministic daily featured puzzle, and the rotation that cycles a
// pool without repeats until every entry has been shown.
package selection

import (
	"hash/fnv"
	"time"

	"nonodojo/internal/catalog"
)

const dayLayout = "2006-01-02"

// PoolSource yields the ordered puzzle sequence for a difficulty.
// *catalog.Catalog satisfies it.
type PoolSource interface {
	Pool(d catalog.Difficulty) ([]catalog.Puzzle, error)
}

// Engine derives puzzles from pools with no state of its own. The
// same inputs always produce the same entry across sessions and
// machines.
type Engine struct {
	pools PoolSource
}

func NewEngine(pools PoolSource) *Engine {
	return &Engine{pools: pools}
}

// poolIndex reduces "{difficulty}:{day}" to an index via FNV-1a. The
// hash must be stable across platforms, so no seeded map hashing.
func poolIndex(d catalog.Difficulty, day string, size int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(d) + ":" + day))
	return int(h.Sum64() % uint64(size))
}

// Featured returns the puzzle designated for (difficulty, day). When
// today's index would land on the same entry as yesterday's, the
// index advances by one so consecutive days never visibly repeat.
func (e *Engine) Featured(d catalog.Difficulty, day string) (catalog.Puzzle, error) {
	pool, err := e.pools.Pool(d)
	if err != nil {
		return catalog.Puzzle{}, err
	}
	if len(pool) == 1 {
		return pool[0], nil
	}
	idx := poolIndex(d, day, len(pool))
	if t, err := time.Parse(dayLayout, day); err == nil {
		yesterday := t.AddDate(0, 0, -1).Format(dayLayout)
		if poolIndex(d, yesterday, len(pool)) == idx {
			idx = (idx + 1) % len(pool)
		}
	}
	return pool[idx], nil
}

// NextUnseen returns the first puzzle not in seen, scanning forward
// (wrapping) from the anchor when given, else from the featured
// puzzle. An unseen anchor is returned unchanged, so repeated calls
// stay put. When the whole pool has been seen it returns the anchor
// (or the first pool entry) to signal exhaustion; the caller resets
// its seen set.
func (e *Engine) NextUnseen(d catalog.Difficulty, day string, seen map[string]bool, anchorID string) (catalog.Puzzle, error) {
	pool, err := e.pools.Pool(d)
	if err != nil {
		return catalog.Puzzle{}, err
	}
	if anchorID != "" && !seen[anchorID] {
		if pz, ok := findByID(pool, anchorID); ok {
			return pz, nil
		}
	}

	start := 0
	if anchorID != "" {
		if i := indexByID(pool, anchorID); i >= 0 {
			start = i
		}
	} else {
		feat, err := e.Featured(d, day)
		if err != nil {
			return catalog.Puzzle{}, err
		}
		if i := indexByID(pool, feat.ID); i >= 0 {
			start = i
		}
	}

	for off := 0; off < len(pool); off++ {
		pz := pool[(start+off)%len(pool)]
		if !seen[pz.ID] {
			return pz, nil
		}
	}
	if pz, ok := findByID(pool, anchorID); ok {
		return pz, nil
	}
	return pool[0], nil
}

func findByID(pool []catalog.Puzzle, id string) (catalog.Puzzle, bool) {
	if i := indexByID(pool, id); i >= 0 {
		return pool[i], true
	}
	return catalog.Puzzle{}, false
}

func indexByID(pool []catalog.Puzzle, id string) int {
	for i, pz := range pool {
		if pz.ID == id {
			return i
		}
	}
	return -1
}
