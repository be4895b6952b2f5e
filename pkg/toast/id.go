package toast

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID identifies a toast within its channel.
type ID string

// IDGenerator produces identifiers for toasts added without WithID.
// Implementations must never fail.
type IDGenerator interface {
	NewID() ID
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() ID

// NewID calls f.
func (f IDFunc) NewID() ID {
	return f()
}

// UUIDs returns the default generator: random version 4 UUIDs.
func UUIDs() IDGenerator {
	return IDFunc(func() ID {
		return ID(uuid.NewString())
	})
}

// sequence hands out monotonically increasing IDs that are never reused.
type sequence struct {
	prefix  string
	counter atomic.Uint64
}

// Sequence returns a generator producing prefix-1, prefix-2, ...
// Useful where readable, deterministic IDs matter more than global
// uniqueness, such as tests and simulations.
func Sequence(prefix string) IDGenerator {
	if prefix == "" {
		prefix = "toast"
	}
	return &sequence{prefix: prefix}
}

func (s *sequence) NewID() ID {
	n := s.counter.Add(1)
	return ID(s.prefix + "-" + strconv.FormatUint(n, 10))
}
