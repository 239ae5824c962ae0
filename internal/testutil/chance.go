package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/fakestream/internal/chance"
)

var _ chance.Source = (*ScriptedChance)(nil)

// DefaultName is returned by ScriptedChance.FirstName when no names are scripted.
const DefaultName = "Felix"

// DefaultDate is returned by ScriptedChance.Date when no dates are scripted.
var DefaultDate = time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC)

// ScriptedChance is a chance.Source that replays predetermined answers.
//
// Each kind of value has its own queue. When a queue runs dry the source
// falls back to a fixed answer:
//   - Boolean: false
//   - IntRange: min
//   - PickOne: options[0]
//   - FirstName: Names cycled, or DefaultName
//   - Date: DefaultDate
//
// A scripted int outside [min, max] panics; that is a test bug.
//
// Every call is recorded and available through Calls.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedChance struct {
	mu sync.Mutex

	Bools []bool
	Ints  []int
	Picks []int // index into the options passed to PickOne
	Names []string
	Dates []time.Time

	bi, ii, pi, ni, di int
	calls              []string
}

// NewScriptedChance creates a source that answers every Boolean call from bools.
func NewScriptedChance(bools ...bool) *ScriptedChance {
	return &ScriptedChance{Bools: bools}
}

func (s *ScriptedChance) Boolean(likelihood int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("Boolean(%d)", likelihood))
	if s.bi >= len(s.Bools) {
		return false
	}
	v := s.Bools[s.bi]
	s.bi++
	return v
}

func (s *ScriptedChance) IntRange(min, max int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("IntRange(%d,%d)", min, max))
	if s.ii >= len(s.Ints) {
		return min
	}
	v := s.Ints[s.ii]
	s.ii++
	if v < min || v > max {
		panic(fmt.Sprintf("ScriptedChance: scripted int %d outside [%d,%d]", v, min, max))
	}
	return v
}

func (s *ScriptedChance) PickOne(options []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("PickOne(%d)", len(options)))
	if len(options) == 0 {
		return ""
	}
	if s.pi >= len(s.Picks) {
		return options[0]
	}
	idx := s.Picks[s.pi]
	s.pi++
	if idx < 0 || idx >= len(options) {
		panic(fmt.Sprintf("ScriptedChance: scripted pick %d outside %d options", idx, len(options)))
	}
	return options[idx]
}

func (s *ScriptedChance) Date(minYear int) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("Date(%d)", minYear))
	if s.di >= len(s.Dates) {
		return DefaultDate
	}
	v := s.Dates[s.di]
	s.di++
	return v
}

func (s *ScriptedChance) FirstName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "FirstName()")
	if len(s.Names) == 0 {
		return DefaultName
	}
	v := s.Names[s.ni%len(s.Names)]
	s.ni++
	return v
}

// Calls returns the recorded calls in order, e.g. "Boolean(30)".
func (s *ScriptedChance) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many recorded calls equal call.
func (s *ScriptedChance) CallCount(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}
