package quote

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces quote identifiers.
type IDGenerator interface {
	NextID(t time.Time) string
}

// SequenceIDs generates ids of the form Q-YYYYMMDD-NNNNNN-xxxxxxxx: the
// quote date, a per-process sequence number and a random suffix. The
// sequence makes ids unique within a process; the suffix keeps restarts
// from reusing them in practice.
type SequenceIDs struct {
	seq atomic.Uint64
}

// NextID returns a new identifier dated t.
func (g *SequenceIDs) NextID(t time.Time) string {
	n := g.seq.Add(1)
	return fmt.Sprintf("Q-%s-%06d-%s", t.Format("20060102"), n, randomSuffix())
}

func randomSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
