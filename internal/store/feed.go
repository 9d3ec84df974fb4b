package store

import "sync"

// feed fans committed changes out to subscribers keyed by game id.
type feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Change)
}

func newFeed() *feed {
	return &feed{
		subs: make(map[string]map[int]func(Change)),
	}
}

func (f *feed) Subscribe(gameID string, fn func(Change)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[gameID] == nil {
		f.subs[gameID] = make(map[int]func(Change))
	}
	f.subs[gameID][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[gameID], id)
			if len(f.subs[gameID]) == 0 {
				delete(f.subs, gameID)
			}
		})
	}
}

func (f *feed) publish(change Change) {
	f.mu.RLock()
	fns := make([]func(Change), 0, len(f.subs[change.GameID]))
	for _, fn := range f.subs[change.GameID] {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()
	for _, fn := range fns {
		fn(change)
	}
}
