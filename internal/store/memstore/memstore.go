// Package memstore provides an in-memory store with the same conflict-skip
// and referential rules as the SQL backends. It backs tests, the offline
// check command and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/agbanzy/pollingunits/internal/core"
)

// Operation names accepted by FailOn and Calls.
const (
	OpListStates         = "ListStates"
	OpListLGAs           = "ListLGAs"
	OpListWards          = "ListWards"
	OpInsertLGAs         = "InsertLGAs"
	OpInsertWards        = "InsertWards"
	OpInsertPollingUnits = "InsertPollingUnits"
	OpDeletePollingUnits = "DeletePollingUnits"
	OpCountPollingUnits  = "CountPollingUnits"
)

type failure struct {
	call int // 1-based call number that fails; 0 fails every call
	err  error
}

// Store is a concurrency-safe in-memory store. Rows keep insertion order.
type Store struct {
	mu sync.Mutex

	states map[string]core.State
	order  []string

	lgas     []core.LGA
	lgaIDs   map[string]int
	lgaCodes map[string]struct{}

	wards     []core.Ward
	wardIDs   map[string]int
	wardCodes map[string]struct{}

	units     []core.PollingUnit
	unitIDs   map[string]struct{}
	unitCodes map[string]struct{}

	calls    map[string]int
	failures map[string]failure
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		states:    make(map[string]core.State),
		lgaIDs:    make(map[string]int),
		lgaCodes:  make(map[string]struct{}),
		wardIDs:   make(map[string]int),
		wardCodes: make(map[string]struct{}),
		unitIDs:   make(map[string]struct{}),
		unitCodes: make(map[string]struct{}),
		calls:     make(map[string]int),
		failures:  make(map[string]failure),
	}
}

// InsertStates adds states, skipping ids that already exist.
func (s *Store) InsertStates(ctx context.Context, states []core.State) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, st := range states {
		if _, ok := s.states[st.ID]; ok {
			continue
		}
		s.order = append(s.order, st.ID)
		s.states[st.ID] = st
		n++
	}
	return n, nil
}

// Migrate is a no-op; the in-memory schema is always current.
func (s *Store) Migrate(ctx context.Context) error { return nil }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FailOn makes the given operation return err on its call-th invocation,
// or on every invocation when call is 0.
func (s *Store) FailOn(op string, call int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{call: call, err: err}
}

// Calls reports how many times op has been invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls zeroes the call counters, leaving data and injected failures.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.calls)
}

// enter records a call and returns the injected error for it, if any.
// Callers hold s.mu.
func (s *Store) enter(op string) error {
	s.calls[op]++
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.call == 0 || f.call == s.calls[op] {
		return f.err
	}
	return nil
}

func (s *Store) ListStates(ctx context.Context) ([]core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListStates); err != nil {
		return nil, err
	}
	out := make([]core.State, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.states[id])
	}
	return out, nil
}

func (s *Store) ListLGAs(ctx context.Context) ([]core.LGA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListLGAs); err != nil {
		return nil, err
	}
	return append([]core.LGA(nil), s.lgas...), nil
}

func (s *Store) ListWards(ctx context.Context) ([]core.Ward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListWards); err != nil {
		return nil, err
	}
	return append([]core.Ward(nil), s.wards...), nil
}

// InsertLGAs appends LGAs, skipping any whose id or code already exists.
// A chunk referencing an unknown state fails as a whole.
func (s *Store) InsertLGAs(ctx context.Context, lgas []core.LGA) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertLGAs); err != nil {
		return 0, err
	}
	for _, l := range lgas {
		if _, ok := s.states[l.StateID]; !ok {
			return 0, fmt.Errorf("lga %s violates foreign key: state %s not found", l.ID, l.StateID)
		}
	}

	var n int64
	for _, l := range lgas {
		if _, dup := s.lgaIDs[l.ID]; dup {
			continue
		}
		if _, dup := s.lgaCodes[l.Code]; dup {
			continue
		}
		s.lgaIDs[l.ID] = len(s.lgas)
		s.lgaCodes[l.Code] = struct{}{}
		s.lgas = append(s.lgas, l)
		n++
	}
	return n, nil
}

// InsertWards appends wards with the same rules as InsertLGAs.
func (s *Store) InsertWards(ctx context.Context, wards []core.Ward) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertWards); err != nil {
		return 0, err
	}
	for _, w := range wards {
		if _, ok := s.lgaIDs[w.LGAID]; !ok {
			return 0, fmt.Errorf("ward %s violates foreign key: lga %s not found", w.ID, w.LGAID)
		}
	}

	var n int64
	for _, w := range wards {
		if _, dup := s.wardIDs[w.ID]; dup {
			continue
		}
		if _, dup := s.wardCodes[w.Code]; dup {
			continue
		}
		s.wardIDs[w.ID] = len(s.wards)
		s.wardCodes[w.Code] = struct{}{}
		s.wards = append(s.wards, w)
		n++
	}
	return n, nil
}

// InsertPollingUnits appends units, skipping any whose id or unit code
// already exists, including duplicates within the same call.
func (s *Store) InsertPollingUnits(ctx context.Context, units []core.PollingUnit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertPollingUnits); err != nil {
		return 0, err
	}
	for _, u := range units {
		if _, ok := s.wardIDs[u.WardID]; !ok {
			return 0, fmt.Errorf("polling unit %s violates foreign key: ward %s not found", u.UnitCode, u.WardID)
		}
	}

	var n int64
	for _, u := range units {
		if _, dup := s.unitIDs[u.ID]; dup {
			continue
		}
		if _, dup := s.unitCodes[u.UnitCode]; dup {
			continue
		}
		s.unitIDs[u.ID] = struct{}{}
		s.unitCodes[u.UnitCode] = struct{}{}
		s.units = append(s.units, u)
		n++
	}
	return n, nil
}

func (s *Store) DeletePollingUnits(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeletePollingUnits); err != nil {
		return 0, err
	}
	n := int64(len(s.units))
	s.units = nil
	s.unitIDs = make(map[string]struct{})
	s.unitCodes = make(map[string]struct{})
	return n, nil
}

func (s *Store) CountPollingUnits(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCountPollingUnits); err != nil {
		return 0, err
	}
	return int64(len(s.units)), nil
}

// LGAs returns a copy of the stored LGAs.
func (s *Store) LGAs() []core.LGA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LGA(nil), s.lgas...)
}

// Wards returns a copy of the stored wards.
func (s *Store) Wards() []core.Ward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Ward(nil), s.wards...)
}

// PollingUnits returns a copy of the stored polling units.
func (s *Store) PollingUnits() []core.PollingUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PollingUnit(nil), s.units...)
}
