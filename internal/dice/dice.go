// Package dice produces the d6 sequences every check in the rule engine is built on.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
)

// Mode selects how many dice are rolled for a check and which two are kept.
type Mode int

const (
	Normal       Mode = iota // 2d6
	Advantage                // 3d6, keep the two highest
	Disadvantage             // 3d6, keep the two lowest
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Advantage:
		return "advantage"
	case Disadvantage:
		return "disadvantage"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Source yields integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Roller draws dice from an explicit source. Not safe for concurrent use;
// a game session owns exactly one.
type Roller struct {
	src Source
}

// New wraps an arbitrary source, typically a scripted one in tests.
func New(src Source) *Roller {
	return &Roller{src: src}
}

// NewSeeded returns a roller backed by math/rand seeded with seed.
// The same seed always produces the same dice sequence.
func NewSeeded(seed int64) *Roller {
	return &Roller{src: rand.New(rand.NewSource(seed))}
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Die rolls a single d6.
func (r *Roller) Die() int {
	return r.src.Intn(6) + 1
}

// D6 rolls n independent d6.
func (r *Roller) D6(n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = r.Die()
	}
	return out
}

// Advantage rolls 3d6 and returns the two largest, ascending.
func (r *Roller) Advantage() []int {
	d := r.D6(3)
	sort.Ints(d)
	return d[1:]
}

// Disadvantage rolls 3d6 and returns the two smallest, ascending.
func (r *Roller) Disadvantage() []int {
	d := r.D6(3)
	sort.Ints(d)
	return d[:2]
}

// Roll returns the two dice a check uses under the given mode.
// Unknown modes fall back to a plain 2d6.
func (r *Roller) Roll(mode Mode) []int {
	switch mode {
	case Advantage:
		return r.Advantage()
	case Disadvantage:
		return r.Disadvantage()
	default:
		return r.D6(2)
	}
}

// Sum adds up a dice sequence.
func Sum(d []int) int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}
