package state

import (
	"sync"

	"github.com/sadopc/solia/internal/store"
)

// Kind identifies what changed.
type Kind int

const (
	ProfileChanged Kind = iota
	ActiveEntryChanged
	EntriesUpdated
	ProfilesUpdated
	ServicesUpdated
	SettingsChanged
)

func (k Kind) String() string {
	switch k {
	case ProfileChanged:
		return "profile_changed"
	case ActiveEntryChanged:
		return "active_entry_changed"
	case EntriesUpdated:
		return "entries_updated"
	case ProfilesUpdated:
		return "profiles_updated"
	case ServicesUpdated:
		return "services_updated"
	case SettingsChanged:
		return "settings_changed"
	}
	return "unknown"
}

// Event carries the payload matching its Kind; unrelated fields stay zero.
type Event struct {
	Kind      Kind
	ProfileID *int64           // ProfileChanged
	Entry     *store.TimeEntry // ActiveEntryChanged, nil when the timer stopped
	Settings  *Settings        // SettingsChanged
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[Kind][]subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers fn for kind. Calling the returned func removes it.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[kind]
		for i, s := range subs {
			if s.id == id {
				b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.subs[e.Kind]))
	for _, s := range b.subs[e.Kind] {
		handlers = append(handlers, s.fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}

// ActiveEntryChanged and EntriesUpdated let the bus serve as the timer's
// notifier.
func (b *Bus) ActiveEntryChanged(active *store.TimeEntry) {
	b.Publish(Event{Kind: ActiveEntryChanged, Entry: active})
}

func (b *Bus) EntriesUpdated() {
	b.Publish(Event{Kind: EntriesUpdated})
}

func (b *Bus) ProfilesUpdated() {
	b.Publish(Event{Kind: ProfilesUpdated})
}

func (b *Bus) ServicesUpdated() {
	b.Publish(Event{Kind: ServicesUpdated})
}
