// Package events is a process-wide registry of refresh notifications.
// Listeners subscribe for a name and get back a function that removes them.
package events

import (
	"context"
	"sync"
)

type Name string

const (
	TransactionUpdated Name = "transactionUpdated"
	ExpenseUpdated     Name = "expenseUpdated"
)

type Listener func(ctx context.Context, name Name)

type subscription struct {
	id int
	fn Listener
}

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Name][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Name][]subscription)}
}

// Subscribe registers fn for name. The returned function unsubscribes it and
// is safe to call more than once.
func (b *Bus) Subscribe(name Name, fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name Name, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Publish calls every listener of name in subscription order on the calling
// goroutine. There is no payload and no delivery guarantee beyond that.
func (b *Bus) Publish(ctx context.Context, name Name) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[name]))
	copy(subs, b.subs[name])
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, name)
	}
}

// Listeners reports how many listeners are registered for name.
func (b *Bus) Listeners(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
