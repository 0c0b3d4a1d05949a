package ratelimit

import (
	"sync"
	"time"
)

// DuplicateWindow tracks recent (form, address) submissions so the server
// can reject repeats inside the duplicate-prevention window without a
// storage round trip in stub mode.
type DuplicateWindow struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	limit time.Duration
	now   func() time.Time
}

// NewDuplicateWindow creates a tracker with the given window size.
func NewDuplicateWindow(window time.Duration) *DuplicateWindow {
	return &DuplicateWindow{
		seen:  make(map[string]time.Time),
		limit: window,
		now:   time.Now,
	}
}

func dupKey(formID, addr string) string {
	return formID + "|" + addr
}

// Seen reports whether the address submitted this form within the window.
func (w *DuplicateWindow) Seen(formID, addr string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.seen[dupKey(formID, addr)]
	if !ok {
		return false
	}
	if w.now().Sub(at) > w.limit {
		delete(w.seen, dupKey(formID, addr))
		return false
	}
	return true
}

// Record marks a submission from the address for the form.
func (w *DuplicateWindow) Record(formID, addr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen[dupKey(formID, addr)] = w.now()
}
