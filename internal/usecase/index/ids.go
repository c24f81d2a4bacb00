package index

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator issues {collection}_{seconds.micros}_{i} ids. The timestamp is
// strictly increasing within one generator, so batches never share a prefix.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator on the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns n ids for one batch.
func (g *IDGenerator) Next(collection string, n int) []string {
	g.mu.Lock()
	micros := g.now().UnixMicro()
	if micros <= g.last {
		micros = g.last + 1
	}
	g.last = micros
	g.mu.Unlock()

	stamp := fmt.Sprintf("%d.%06d", micros/1_000_000, micros%1_000_000)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s_%s_%d", collection, stamp, i)
	}
	return ids
}
