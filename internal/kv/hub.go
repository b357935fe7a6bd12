package kv

import "sync"

type hub struct {
	mu   sync.Mutex
	subs map[chan Change]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan Change]struct{}{}}
}

func (h *hub) subscribe(buffer int) (ch chan Change, cancel func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch = make(chan Change, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// broadcast never blocks; slow subscribers miss notifications, which only
// carry "something changed" anyway.
func (h *hub) broadcast(c Change) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
	h.mu.Unlock()
}
