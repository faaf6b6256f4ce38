package services

import (
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// IDGenerator synthesizes appointment ids. Implementations must be safe for
// concurrent use.
type IDGenerator interface {
	NewID() string
}

// TimestampIDs issues millisecond Unix timestamps as decimal strings. When
// the clock has not advanced since the previous id, the previous value plus
// one is used, so ids are strictly increasing within a process.
type TimestampIDs struct {
	Now func() time.Time

	mu   sync.Mutex
	last int64
}

// NewID returns the next timestamp id.
func (g *TimestampIDs) NewID() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ms := now().UnixMilli()

	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return strconv.FormatInt(ms, 10)
}

// SnowflakeIDs issues Twitter-style snowflake ids from a single node.
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs creates a generator for node (0..1023).
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &SnowflakeIDs{node: n}, nil
}

// NewID returns the next snowflake id as a decimal string.
func (g *SnowflakeIDs) NewID() string { return g.node.Generate().String() }

// UUIDIDs issues random version 4 UUIDs.
type UUIDIDs struct{}

// NewID returns a new UUID string.
func (UUIDIDs) NewID() string { return uuid.NewString() }

// SequenceIDs issues Prefix1, Prefix2, ... Deterministic; meant for tests and
// fixtures.
type SequenceIDs struct {
	Prefix string

	mu sync.Mutex
	n  int
}

// NewID returns the next id in the sequence.
func (g *SequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.Prefix + strconv.Itoa(g.n)
}

// NewIDGenerator maps a configured strategy name to a generator. Unknown
// names fall back to timestamps.
func NewIDGenerator(strategy string, node int64) (IDGenerator, error) {
	switch strategy {
	case "uuid":
		return UUIDIDs{}, nil
	case "snowflake":
		return NewSnowflakeIDs(node)
	default:
		return &TimestampIDs{}, nil
	}
}
