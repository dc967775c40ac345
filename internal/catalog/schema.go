package catalog

import (
	"fmt"
	"regexp"

	"nonodojo/internal/nonogram"
)

const (
	PackKind               = "puzzle_pack"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

// Difficulty names one authored pool. Order matters: Tiers lists
// them easiest first, which is also the fallback order when a pool
// is empty.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Tiers is the canonical tier order, easiest first.
var Tiers = []Difficulty{Easy, Medium, Hard}

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	default:
		return Easy, fmt.Errorf("unknown difficulty %q", s)
	}
}

func (d Difficulty) String() string { return string(d) }

// Puzzle is one authored entry. Identity is ID; the struct is never
// mutated after loading.
type Puzzle struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	Size int      `yaml:"size"`
	Rows []string `yaml:"rows"`

	Solution nonogram.Solution `yaml:"-"`
	Clues    nonogram.Clues    `yaml:"-"`
}

// Pack groups the puzzles of one difficulty tier. Order within
// Puzzles is significant: it is the rotation iteration order and the
// tiebreak for deterministic featured-puzzle hashing.
type Pack struct {
	Kind          string   `yaml:"kind"`
	SchemaVersion int      `yaml:"schema_version"`
	Difficulty    string   `yaml:"difficulty"`
	Name          string   `yaml:"name"`
	Puzzles       []Puzzle `yaml:"puzzles"`

	Path string `yaml:"-"`
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("kind must be %q", PackKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported pack schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if _, err := ParseDifficulty(p.Difficulty); err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	seen := map[string]struct{}{}
	for i, pz := range p.Puzzles {
		if !idPattern.MatchString(pz.ID) {
			return fmt.Errorf("puzzles[%d]: invalid id %q", i, pz.ID)
		}
		if _, ok := seen[pz.ID]; ok {
			return fmt.Errorf("duplicate puzzle id %q", pz.ID)
		}
		seen[pz.ID] = struct{}{}
		if pz.Size < 2 {
			return fmt.Errorf("puzzle %q: size must be >= 2", pz.ID)
		}
		if len(pz.Rows) != pz.Size {
			return fmt.Errorf("puzzle %q: %d rows, want %d", pz.ID, len(pz.Rows), pz.Size)
		}
	}
	return nil
}
