package world

import "github.com/tatianab/agentia/internal/models"

// DefaultMemoryCapacity is used when no capacity is configured.
const DefaultMemoryCapacity = 20

// Memory is a fixed-capacity ring buffer of recent entries. Adding to a full
// buffer evicts the oldest entry.
type Memory struct {
	buf   []models.MemoryEntry
	start int
	n     int
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{buf: make([]models.MemoryEntry, capacity)}
}

// Add appends an entry and reports whether an older entry was evicted.
func (m *Memory) Add(e models.MemoryEntry) (evicted bool) {
	if m.n < len(m.buf) {
		m.buf[(m.start+m.n)%len(m.buf)] = e
		m.n++
		return false
	}
	m.buf[m.start] = e
	m.start = (m.start + 1) % len(m.buf)
	return true
}

// Entries returns a copy, oldest first.
func (m *Memory) Entries() []models.MemoryEntry {
	out := make([]models.MemoryEntry, m.n)
	for i := 0; i < m.n; i++ {
		out[i] = m.buf[(m.start+i)%len(m.buf)]
	}
	return out
}

func (m *Memory) Len() int { return m.n }
func (m *Memory) Cap() int { return len(m.buf) }
