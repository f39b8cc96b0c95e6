package store

import (
	"sync"
	"time"
)

// EventKind identifies which entity changed
type EventKind string

const (
	ProfileChanged  EventKind = "profile_changed"
	RosterChanged   EventKind = "roster_changed"
	WordBankChanged EventKind = "word_bank_changed"
	SettingsChanged EventKind = "settings_changed"
)

// Event is published after a successful write
type Event struct {
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`
}

type subscription struct {
	kinds map[EventKind]bool
	fn    func(Event)
}

type broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

// Subscribe registers fn for the given kinds, or for every kind when none
// are given. Handlers run synchronously on the writing goroutine after the
// write lock is released. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Event), kinds ...EventKind) (unsubscribe func()) {
	b := &s.events
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]subscription)
	}
	sub := subscription{fn: fn}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (s *Store) publish(kinds ...EventKind) {
	b := &s.events
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	now := s.now()
	for _, kind := range kinds {
		ev := Event{Kind: kind, At: now}
		for _, sub := range subs {
			if sub.kinds == nil || sub.kinds[kind] {
				sub.fn(ev)
			}
		}
	}
}
