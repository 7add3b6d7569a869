// Package colors assigns display colors to tag names.
package colors

import (
	"math/rand/v2"
	"regexp"
	"sync"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

// Assigner picks a color for a tag name.
type Assigner interface {
	Assign(name string) string
}

// Palette is an ordered, immutable list of hex colors.
type Palette struct {
	colors []string
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var defaultColors = []string{
	"#3E5641", // hunter green
	"#DD6E42", // burnt sienna
	"#59A96A", // jade
	"#FFC43D", // amber
	"#5F4BB6", // iris
	"#5DD9C1", // turquoise
	"#F97068", // bittersweet
	"#E9D758", // arylide yellow
	"#665687", // ultra violet
	"#8E518D", // plum
}

// DefaultPalette returns the built-in ten color palette.
func DefaultPalette() Palette {
	p, _ := NewPalette(defaultColors)
	return p
}

// NewPalette copies colors into a palette. Every entry must be a #RRGGBB value.
func NewPalette(colors []string) (Palette, error) {
	if len(colors) == 0 {
		return Palette{}, apperrors.New(apperrors.ValidationFailed, "palette must contain at least one color")
	}
	for _, c := range colors {
		if !hexColor.MatchString(c) {
			return Palette{}, apperrors.Newf(apperrors.ValidationFailed, "invalid palette color %q", c)
		}
	}
	return Palette{colors: append([]string(nil), colors...)}, nil
}

// Len returns the number of colors.
func (p Palette) Len() int {
	return len(p.colors)
}

// At returns the color at index i.
func (p Palette) At(i int) string {
	return p.colors[i]
}

// Colors returns a copy of the palette entries.
func (p Palette) Colors() []string {
	return append([]string(nil), p.colors...)
}

// Contains reports whether color is one of the palette entries.
func (p Palette) Contains(color string) bool {
	for _, c := range p.colors {
		if c == color {
			return true
		}
	}
	return false
}

func orDefault(p Palette) Palette {
	if p.Len() == 0 {
		return DefaultPalette()
	}
	return p
}

// HashAssigner maps a name to the palette entry indexed by the sum of the
// code points of models.NameKey(name), the same key tags are stored under.
type HashAssigner struct {
	palette Palette
}

// NewHashAssigner returns a deterministic assigner over p. A zero palette
// falls back to DefaultPalette.
func NewHashAssigner(p Palette) *HashAssigner {
	return &HashAssigner{palette: orDefault(p)}
}

// Assign implements Assigner.
func (h *HashAssigner) Assign(name string) string {
	sum := 0
	for _, r := range models.NameKey(name) {
		sum += int(r)
	}
	return h.palette.At(sum % h.palette.Len())
}

// RandomAssigner picks a uniformly random palette entry. Colors it hands out
// are not reproducible, so reconciling the same name twice may yield
// different colors for tags that did not exist yet.
type RandomAssigner struct {
	palette Palette

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomAssigner returns an assigner drawing from src. A nil src uses a
// randomly seeded PCG source.
func NewRandomAssigner(p Palette, src rand.Source) *RandomAssigner {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomAssigner{palette: orDefault(p), rnd: rand.New(src)}
}

// Assign implements Assigner.
func (r *RandomAssigner) Assign(string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.palette.At(r.rnd.IntN(r.palette.Len()))
}

// Strategy names accepted by New.
const (
	StrategyHash   = "hash"
	StrategyRandom = "random"
)

// New builds the assigner named by strategy.
func New(strategy string, p Palette) (Assigner, error) {
	switch strategy {
	case "", StrategyHash:
		return NewHashAssigner(p), nil
	case StrategyRandom:
		return NewRandomAssigner(p, nil), nil
	default:
		return nil, apperrors.Newf(apperrors.ValidationFailed, "unknown color strategy %q", strategy)
	}
}
