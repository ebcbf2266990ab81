package services

import (
	"sort"
	"sync"
)

// cardLocks serializes multi-step read-modify-write sequences on a
// card's available limit. The store itself only sees single-row writes;
// the race window between reading a limit and writing it back is closed
// here, per card.
type cardLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newCardLocks() *cardLocks {
	return &cardLocks{m: make(map[int64]*sync.Mutex)}
}

func (l *cardLocks) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.m[id]
	if !ok {
		mu = &sync.Mutex{}
		l.m[id] = mu
	}
	return mu
}

// Lock acquires the locks for the given card ids in ascending order
// (deduplicated), so an edit moving a transaction between two cards
// cannot deadlock against the opposite move. The returned func releases
// them in reverse order.
func (l *cardLocks) Lock(ids ...int64) func() {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		mu := l.get(id)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
