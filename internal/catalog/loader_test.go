package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltinPacks(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load builtin catalog: %v", err)
	}
	for _, d := range Tiers {
		pool, err := c.Pool(d)
		if err != nil {
			t.Fatalf("pool %s: %v", d, err)
		}
		if len(pool) == 0 {
			t.Fatalf("expected builtin puzzles for %s", d)
		}
		for _, pz := range pool {
			if pz.Solution.Size() != pz.Size {
				t.Fatalf("puzzle %s: solution size %d != declared %d", pz.ID, pz.Solution.Size(), pz.Size)
			}
			if len(pz.Clues.Rows) != pz.Size || len(pz.Clues.Cols) != pz.Size {
				t.Fatalf("puzzle %s: clues not derived", pz.ID)
			}
		}
	}
}

func TestLoadMergesExternalPacks(t *testing.T) {
	dir := t.TempDir()
	pack := `kind: puzzle_pack
schema_version: 1
difficulty: easy
name: Extra
puzzles:
  - id: extra-dot
    name: Dot
    size: 2
    rows:
      - "#."
      - ".."
`
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, ok := c.Find(Easy, "extra-dot"); !ok {
		t.Fatalf("expected external puzzle to be merged into easy pool")
	}

	builtinOnly, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	mergedPool, _ := c.Pool(Easy)
	builtinPool, _ := builtinOnly.Pool(Easy)
	if len(mergedPool) != len(builtinPool)+1 {
		t.Fatalf("expected merged pool to grow by one, got %d vs %d", len(mergedPool), len(builtinPool))
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	pack := `kind: puzzle_pack
schema_version: 1
difficulty: easy
name: Clash
puzzles:
  - id: easy-heart
    name: Duplicate
    size: 2
    rows:
      - "#."
      - ".."
`
	if err := os.WriteFile(filepath.Join(dir, "clash.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadMissingPacksDirIsNotFatal(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing packs dir should be ignored: %v", err)
	}
}

func TestPackValidate(t *testing.T) {
	good := Pack{
		Kind:          PackKind,
		SchemaVersion: 1,
		Difficulty:    "easy",
		Name:          "ok",
		Puzzles:       []Puzzle{{ID: "pz-one", Size: 2, Rows: []string{"#.", ".."}}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid pack: %v", err)
	}

	bad := good
	bad.Kind = "pack"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected kind error")
	}

	bad = good
	bad.Difficulty = "brutal"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected difficulty error")
	}

	bad = good
	bad.Puzzles = []Puzzle{{ID: "x", Size: 2, Rows: []string{"#.", ".."}}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected id pattern error")
	}

	bad = good
	bad.Puzzles = append([]Puzzle{}, good.Puzzles[0], good.Puzzles[0])
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestPoolEmptyDifficulty(t *testing.T) {
	c := &Catalog{pools: map[Difficulty][]Puzzle{}}
	if _, err := c.Pool(Hard); !errors.Is(err, ErrNoPuzzles) {
		t.Fatalf("expected ErrNoPuzzles, got %v", err)
	}
	if _, err := c.FallbackDifficulty(); !errors.Is(err, ErrNoPuzzles) {
		t.Fatalf("expected ErrNoPuzzles from fallback, got %v", err)
	}
}
