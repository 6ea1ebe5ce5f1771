// Package id generates identifiers for procedures, traces, and recording
// databases.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator can generate IDs.
type Generator interface {
	// Generate an ID
	Generate() string
}

// NewSequentialGenerator returns a generator producing "1", "2", ... in
// order. Runs that use it are deterministic.
func NewSequentialGenerator() Generator {
	return &sequentialGenerator{}
}

// NewPrefixedGenerator returns a sequential generator whose IDs carry the
// given prefix, e.g. "line1-proc-3".
func NewPrefixedGenerator(prefix string) Generator {
	return &sequentialGenerator{prefix: prefix}
}

// NewXIDGenerator returns a generator of globally unique, sortable IDs. The
// IDs are not deterministic across runs.
func NewXIDGenerator() Generator {
	return xidGenerator{}
}

type sequentialGenerator struct {
	prefix string
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return g.prefix + strconv.FormatUint(idNumber, 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
