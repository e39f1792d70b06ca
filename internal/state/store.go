package state

import (
	"sort"
	"sync"
	"time"

	"github.com/five82/splashwatch/internal/software"
)

// SourceState describes how a deployment-log source is doing.
type SourceState int

const (
	SourcePending SourceState = iota
	SourceWatching
	SourceInert         // log file could not be opened
	SourceRulesDisabled // every pattern failed to compile
)

func (s SourceState) String() string {
	switch s {
	case SourceWatching:
		return "watching"
	case SourceInert:
		return "unreadable"
	case SourceRulesDisabled:
		return "rules disabled"
	default:
		return "pending"
	}
}

// SourceHealth is what a driver reports about itself.
type SourceHealth struct {
	State  SourceState
	Path   string
	Detail string
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Records     []software.Record
	Sources     map[string]SourceHealth
	LastUpdated time.Time
}

// Counts returns the number of records per status.
func (s Snapshot) Counts() (installing, success, failed int) {
	for _, r := range s.Records {
		switch r.Status {
		case software.StatusInstalling:
			installing++
		case software.StatusSuccess:
			success++
		case software.StatusFailed:
			failed++
		}
	}
	return installing, success, failed
}

// Done reports whether at least one package is known and none is still
// installing.
func (s Snapshot) Done() bool {
	installing, _, _ := s.Counts()
	return len(s.Records) > 0 && installing == 0
}

// SourceNames returns the reported source names in sorted order.
func (s Snapshot) SourceNames() []string {
	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store is the process-wide software registry. The zero value is ready to
// use. Records keep their insertion order so lists do not reshuffle.
type Store struct {
	mu          sync.RWMutex
	index       map[software.Identity]int
	records     []software.Record
	sources     map[string]SourceHealth
	seq         uint64
	lastUpdated time.Time

	changesOnce sync.Once
	changes     chan struct{}
}

// Upsert merges ev into the registry and returns the resulting record and
// whether anything visible changed.
//
// A terminal status is sticky: installing only ever moves a package from
// absent to installing. Success and failed overwrite installing and each
// other.
func (s *Store) Upsert(ev software.Event) (software.Record, bool) {
	if ev.Status == software.StatusUnknown {
		return software.Record{}, false
	}

	s.mu.Lock()
	if s.index == nil {
		s.index = make(map[software.Identity]int)
	}

	i, exists := s.index[ev.Identity]
	if exists {
		current := s.records[i]
		if !shouldReplace(current.Status, ev.Status) {
			s.mu.Unlock()
			return current, false
		}
		s.seq++
		current.Status = ev.Status
		current.Source = ev.Source
		current.Seq = s.seq
		current.UpdatedAt = time.Now()
		s.records[i] = current
		s.lastUpdated = current.UpdatedAt
		s.mu.Unlock()
		s.notify()
		return current, true
	}

	s.seq++
	rec := software.Record{
		Identity:  ev.Identity,
		Status:    ev.Status,
		Source:    ev.Source,
		Seq:       s.seq,
		UpdatedAt: time.Now(),
	}
	s.index[ev.Identity] = len(s.records)
	s.records = append(s.records, rec)
	s.lastUpdated = rec.UpdatedAt
	s.mu.Unlock()
	s.notify()
	return rec, true
}

func shouldReplace(current, next software.Status) bool {
	if current == next {
		return false
	}
	return next.Terminal()
}

// All returns a copy of every record in insertion order.
func (s *Store) All() []software.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Get returns the record for id, if any.
func (s *Store) Get(id software.Identity) (software.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return software.Record{}, false
	}
	return s.records[i], true
}

// SetSourceHealth records the health of a deployment-log source.
func (s *Store) SetSourceHealth(name string, h SourceHealth) {
	s.mu.Lock()
	if s.sources == nil {
		s.sources = make(map[string]SourceHealth)
	}
	s.sources[name] = h
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Records:     cloneRecords(s.records),
		Sources:     make(map[string]SourceHealth, len(s.sources)),
		LastUpdated: s.lastUpdated,
	}
	for name, h := range s.sources {
		snap.Sources[name] = h
	}
	return snap
}

// Changes returns a channel that receives a value whenever the registry
// changes. Bursts of changes are coalesced into one signal.
func (s *Store) Changes() <-chan struct{} {
	s.changesOnce.Do(s.initChanges)
	return s.changes
}

func (s *Store) initChanges() {
	s.changes = make(chan struct{}, 1)
}

func (s *Store) notify() {
	s.changesOnce.Do(s.initChanges)
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Reset clears all records and source health. Tests only.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.records = nil
	s.sources = nil
	s.seq = 0
	s.lastUpdated = time.Time{}
}

func cloneRecords(records []software.Record) []software.Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]software.Record, len(records))
	copy(dup, records)
	return dup
}
