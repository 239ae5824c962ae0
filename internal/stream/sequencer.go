package stream

// Sequencer issues record ids and holds the stream's base sequence.
//
// Ids start at 1 and are never reused. The base sequence is fixed for the
// lifetime of the run.
type Sequencer struct {
	base int64
	next int64
}

// NewSequencer creates a sequencer whose first id is 1.
func NewSequencer(base int64) *Sequencer {
	return &Sequencer{base: base, next: 1}
}

// Base returns the sequence carried by fresh record messages.
func (s *Sequencer) Base() int64 {
	return s.base
}

// Peek returns the id the next record will receive.
func (s *Sequencer) Peek() int64 {
	return s.next
}

// NextID consumes and returns the next id.
func (s *Sequencer) NextID() int64 {
	id := s.next
	s.next++
	return id
}

// Shifted returns the sequence carried by duplicate record messages.
func (s *Sequencer) Shifted(delta int64) int64 {
	return s.base + delta
}
