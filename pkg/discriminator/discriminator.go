// Package discriminator computes and matches anchor-style 8-byte discriminators.
//
// Instruction data starts with sha256("global:<snake_case_name>")[:8], account
// data with sha256("account:<PascalName>")[:8] and event payloads with
// sha256("event:<PascalName>")[:8].
package discriminator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/lugondev/go-soflotto/pkg/utils"
)

// Size is the length of a discriminator in bytes.
const Size = 8

type Discriminator [Size]byte

func hashPrefix(namespace, name string) Discriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], sum[:Size])
	return d
}

// Instruction returns the discriminator of an instruction. The name may be
// given in camel or snake case.
func Instruction(name string) Discriminator {
	return hashPrefix("global", utils.ToSnakeCase(name))
}

// Account returns the discriminator of an account type.
func Account(name string) Discriminator {
	return hashPrefix("account", utils.ToPascalCase(name))
}

// Event returns the discriminator of an event type.
func Event(name string) Discriminator {
	return hashPrefix("event", utils.ToPascalCase(name))
}

// FromBytes reads a discriminator from the head of data. ok is false when
// data is shorter than Size.
func FromBytes(data []byte) (d Discriminator, ok bool) {
	if len(data) < Size {
		return d, false
	}
	copy(d[:], data[:Size])
	return d, true
}

func (d Discriminator) Bytes() []byte {
	return d[:]
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Matcher maps discriminators to their registration index.
type Matcher struct {
	index   map[Discriminator]int
	ordered []Discriminator
}

func NewMatcher(discs ...Discriminator) *Matcher {
	m := &Matcher{
		index:   make(map[Discriminator]int, len(discs)),
		ordered: make([]Discriminator, 0, len(discs)),
	}
	for _, d := range discs {
		m.Add(d)
	}
	return m
}

// Add registers d and returns its index. Registering the same value twice
// returns the original index.
func (m *Matcher) Add(d Discriminator) int {
	if idx, ok := m.index[d]; ok {
		return idx
	}
	m.index[d] = len(m.ordered)
	m.ordered = append(m.ordered, d)
	return len(m.ordered) - 1
}

// Match returns the index of target, or -1.
func (m *Matcher) Match(target Discriminator) int {
	if idx, ok := m.index[target]; ok {
		return idx
	}
	return -1
}

// MatchData matches the discriminator at the head of data.
func (m *Matcher) MatchData(data []byte) int {
	d, ok := FromBytes(data)
	if !ok {
		return -1
	}
	return m.Match(d)
}

func (m *Matcher) MatchBatch(targets []Discriminator) []int {
	if len(targets) == 0 {
		return nil
	}
	results := make([]int, len(targets))
	for i, t := range targets {
		results[i] = m.Match(t)
	}
	return results
}

func (m *Matcher) Len() int {
	return len(m.ordered)
}
