package mesh

import "sync"

// SequenceCounter tags outgoing frames. It is 16 bits wide, starts at 1
// and wraps with exact mod-2^16 arithmetic (65535 is followed by 0).
// Values are never reused or rolled back: the counter advances on every
// successful build even if the subsequent transmission fails.
// It is safe for concurrent use.
type SequenceCounter struct {
	value uint16
	mu    sync.Mutex
}

// NewSequenceCounter creates a counter starting at 1.
func NewSequenceCounter() *SequenceCounter {
	return &SequenceCounter{value: 1}
}

// NewSequenceCounterWithValue creates a counter with a specific initial
// value. Used for testing wraparound behavior.
func NewSequenceCounterWithValue(initial uint16) *SequenceCounter {
	return &SequenceCounter{value: initial}
}

// Next returns the current value and advances the counter by one.
func (c *SequenceCounter) Next() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.value
	c.value++ // uint16 arithmetic wraps 65535 -> 0
	return current
}

// Current returns the value the next build will use, without advancing.
func (c *SequenceCounter) Current() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
