package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"nonodojo/internal/nonogram"
)

//go:embed packs/*.yaml
var builtinPacks embed.FS

// ErrNoPuzzles is returned when a requested difficulty has no
// authored puzzles. Callers fall back to the easiest non-empty tier.
var ErrNoPuzzles = errors.New("no puzzles available")

// Catalog is the immutable, loaded puzzle collection.
type Catalog struct {
	pools map[Difficulty][]Puzzle
}

// Load reads the builtin embedded packs plus, when packsDir is
// non-empty, any *.yaml pack files found there. On-disk packs with
// the same difficulty extend the builtin pool; puzzle ids collide
// across packs at load time, not silently at play time.
func Load(packsDir string) (*Catalog, error) {
	c := &Catalog{pools: map[Difficulty][]Puzzle{}}

	entries, err := fs.ReadDir(builtinPacks, "packs")
	if err != nil {
		return nil, fmt.Errorf("read builtin packs: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		b, err := fs.ReadFile(builtinPacks, "packs/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin pack %s: %w", e.Name(), err)
		}
		if err := c.addPack(b, "builtin:"+e.Name()); err != nil {
			return nil, err
		}
	}

	if packsDir != "" {
		if err := c.loadDir(packsDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read packs dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read pack %s: %w", path, err)
		}
		if err := c.addPack(b, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) addPack(raw []byte, source string) error {
	var pack Pack
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	if err := pack.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", source, err)
	}
	pack.Path = source

	difficulty := Difficulty(pack.Difficulty)
	known := map[string]struct{}{}
	for _, pz := range c.pools[difficulty] {
		known[pz.ID] = struct{}{}
	}
	for _, pz := range pack.Puzzles {
		if _, ok := known[pz.ID]; ok {
			return fmt.Errorf("%s: puzzle id %q already defined for difficulty %s", source, pz.ID, difficulty)
		}
		solution, err := nonogram.ParseSolution(pz.Rows)
		if err != nil {
			return fmt.Errorf("%s: puzzle %q: %w", source, pz.ID, err)
		}
		pz.Solution = solution
		pz.Clues = nonogram.DeriveClues(solution)
		c.pools[difficulty] = append(c.pools[difficulty], pz)
		known[pz.ID] = struct{}{}
	}
	return nil
}

// Pool returns the ordered puzzle sequence for a difficulty.
func (c *Catalog) Pool(d Difficulty) ([]Puzzle, error) {
	pool := c.pools[d]
	if len(pool) == 0 {
		return nil, fmt.Errorf("difficulty %s: %w", d, ErrNoPuzzles)
	}
	return pool, nil
}

// Find locates a puzzle by id within one difficulty's pool.
func (c *Catalog) Find(d Difficulty, id string) (Puzzle, bool) {
	for _, pz := range c.pools[d] {
		if pz.ID == id {
			return pz, true
		}
	}
	return Puzzle{}, false
}

// FallbackDifficulty returns the easiest tier that has puzzles.
// Used when a requested pool turns out empty, so the game never
// dead-ends.
func (c *Catalog) FallbackDifficulty() (Difficulty, error) {
	for _, d := range Tiers {
		if len(c.pools[d]) > 0 {
			return d, nil
		}
	}
	return Easy, ErrNoPuzzles
}

// PoolSizes reports per-tier puzzle counts for the catalog command.
func (c *Catalog) PoolSizes() map[Difficulty]int {
	out := make(map[Difficulty]int, len(c.pools))
	for d, pool := range c.pools {
		out[d] = len(pool)
	}
	return out
}
