// Package memory is the stub-mode storage: forms come from JSON fixture
// files, submissions live in process memory. It backs tests and local
// development the same way the production store backs deployments.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/schema"
	"github.com/xordon/webform-go/internal/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu          sync.RWMutex
	forms       map[string]*domain.Form
	submissions map[string][]*domain.Submission // by form id
	webhooks    []domain.Webhook
	views       map[string]int
	starts      map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		forms:       make(map[string]*domain.Form),
		submissions: make(map[string][]*domain.Submission),
		views:       make(map[string]int),
		starts:      make(map[string]int),
	}
}

// LoadDir reads every *.json form fixture under dir, validating each
// definition once at load time.
func LoadDir(dir string) (*Store, error) {
	s := New()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("memory: read fixtures: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("memory: read fixture %s: %w", e.Name(), err)
		}
		form, err := schema.ParseForm(raw)
		if err != nil {
			return nil, fmt.Errorf("memory: fixture %s: %w", e.Name(), err)
		}
		s.AddForm(form)
	}
	return s, nil
}

// AddForm registers a form.
func (s *Store) AddForm(f *domain.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[f.ID] = f
}

// AddWebhook registers a webhook subscription.
func (s *Store) AddWebhook(w domain.Webhook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, w)
}

func (s *Store) PublicForm(_ context.Context, id string) (*domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[id]
	if !ok || f.Status != domain.StatusPublished {
		return nil, storage.ErrNotFound
	}
	// Copy so callers see a stable snapshot with the live count.
	out := *f
	out.SubmissionCount = len(s.submissions[id])
	return &out, nil
}

func (s *Store) RecordView(_ context.Context, formID, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[formID]++
	return nil
}

func (s *Store) RecordStart(_ context.Context, formID, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts[formID]++
	return nil
}

func (s *Store) InsertSubmission(_ context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[sub.FormID]; !ok {
		return storage.ErrNotFound
	}
	s.submissions[sub.FormID] = append(s.submissions[sub.FormID], sub)
	return nil
}

func (s *Store) HasRecentSubmission(_ context.Context, formID, addr string, since time.Time) (bool, error) {
	if addr == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions[formID] {
		if sub.IPAddress == addr && sub.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Webhooks(_ context.Context, formID string) ([]domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Webhook
	for _, w := range s.webhooks {
		if !w.Enabled {
			continue
		}
		if w.FormID != "" && w.FormID != formID {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Submissions returns the stored submissions for a form, oldest first.
func (s *Store) Submissions(formID string) []*domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.Submission(nil), s.submissions[formID]...)
}

// Views returns the recorded view count for a form.
func (s *Store) Views(formID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views[formID]
}

// Starts returns the recorded start count for a form.
func (s *Store) Starts(formID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.starts[formID]
}
