// Package store holds the in-memory, ordered list of calendar events.
package store

import (
	"strings"
	"sync"

	"fridgecal/internal/caldate"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/model"
)

// Input is the user-supplied part of an event. A zero EndDate means the
// event lasts a single day.
type Input struct {
	Date    caldate.Date
	EndDate caldate.Date
	Content string
	Color   string
}

// Store owns all CalendarEvents. It is safe for concurrent use; change
// listeners run after the write lock is released.
type Store struct {
	mu        sync.RWMutex
	events    []model.CalendarEvent
	nextID    int64
	version   uint64
	listeners []func()
}

func New() *Store {
	return &Store{nextID: 1}
}

// OnChange registers fn to be called after every successful mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// normalize validates in and returns the stored form. ok is false when the
// content is blank or the start date is missing.
func normalize(in Input) (model.CalendarEvent, bool) {
	content := strings.TrimSpace(in.Content)
	if content == "" || in.Date.IsZero() {
		return model.CalendarEvent{}, false
	}
	end := in.EndDate
	if end.IsZero() || end.Before(in.Date) {
		end = in.Date
	}
	color, _ := model.NormalizeColor(in.Color)
	return model.CalendarEvent{
		Date:    in.Date,
		EndDate: end,
		Content: content,
		Color:   color,
	}, true
}

// Add appends a new event and returns its id. Blank content is a silent
// no-op: ok is false and no id is consumed.
func (s *Store) Add(in Input) (int64, bool) {
	ev, ok := normalize(in)
	if !ok {
		return 0, false
	}

	s.mu.Lock()
	ev.ID = s.nextID
	s.nextID++
	s.events = append(s.events, ev)
	s.version++
	fns := s.listeners
	s.mu.Unlock()

	appLog.Debug("event added", "id", ev.ID, "date", ev.Date, "end_date", ev.EndDate)
	notify(fns)
	return ev.ID, true
}

// AddMany adds every valid input and notifies listeners once. It returns
// the number of events added.
func (s *Store) AddMany(ins []Input) int {
	s.mu.Lock()
	added := 0
	for _, in := range ins {
		ev, ok := normalize(in)
		if !ok {
			continue
		}
		ev.ID = s.nextID
		s.nextID++
		s.events = append(s.events, ev)
		added++
	}
	if added > 0 {
		s.version++
	}
	fns := s.listeners
	s.mu.Unlock()

	if added > 0 {
		notify(fns)
	}
	return added
}

// Edit replaces the event with the given id in place. Unknown ids and blank
// content are no-ops.
func (s *Store) Edit(id int64, in Input) bool {
	ev, ok := normalize(in)
	if !ok {
		return false
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	ev.ID = id
	s.events[i] = ev
	s.version++
	fns := s.listeners
	s.mu.Unlock()

	notify(fns)
	return true
}

// Remove deletes the event with the given id if present.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.events = append(s.events[:i:i], s.events[i+1:]...)
	s.version++
	fns := s.listeners
	s.mu.Unlock()

	notify(fns)
	return true
}

func (s *Store) Get(id int64) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.events[i], true
	}
	return model.CalendarEvent{}, false
}

// List returns a copy of all events in insertion order.
func (s *Store) List() []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CalendarEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Version increases on every successful mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
