// Package postgres is the production storage.Store backed by a pgx pool.
// The schema mirrors the original webforms tables: forms, per-form fields,
// submissions, view/start tracking rows and webhook subscriptions.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/storage"
)

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) PublicForm(ctx context.Context, id string) (*domain.Form, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT f.id, f.title, COALESCE(f.description, ''), f.type, f.status, f.settings,
		       (SELECT COUNT(*) FROM webform_submissions WHERE form_id = f.id)
		FROM webform_forms f
		WHERE f.id = $1 AND f.status = 'published'`, id)

	var (
		form       domain.Form
		rawSetting []byte
	)
	err := row.Scan(&form.ID, &form.Title, &form.Description, &form.Type, &form.Status, &rawSetting, &form.SubmissionCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load form: %w", err)
	}
	form.Settings, err = domain.ParseSettings(rawSetting)
	if err != nil {
		return nil, fmt.Errorf("postgres: form %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, field_type, label, COALESCE(placeholder, ''), COALESCE(description, ''), required, COALESCE(options, '[]'), position
		FROM webform_fields
		WHERE form_id = $1
		ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: load fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f       domain.FieldSpec
			rawOpts []byte
		)
		if err := rows.Scan(&f.ID, &f.Type, &f.Label, &f.Placeholder, &f.Description, &f.Required, &rawOpts, &f.Position); err != nil {
			return nil, fmt.Errorf("postgres: scan field: %w", err)
		}
		if err := json.Unmarshal(rawOpts, &f.Options); err != nil {
			return nil, fmt.Errorf("postgres: field %s options: %w", f.ID, err)
		}
		form.Fields = append(form.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate fields: %w", err)
	}
	return &form, nil
}

func (s *Store) RecordView(ctx context.Context, formID, addr, userAgent string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webform_views (form_id, ip_address, user_agent, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NOW())`, formID, addr, userAgent)
	if err != nil {
		return fmt.Errorf("postgres: record view: %w", err)
	}
	return nil
}

func (s *Store) RecordStart(ctx context.Context, formID, addr, userAgent string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webform_starts (form_id, ip_address, user_agent, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NOW())`, formID, addr, userAgent)
	if err != nil {
		return fmt.Errorf("postgres: record start: %w", err)
	}
	return nil
}

func (s *Store) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("postgres: encode submission data: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO webform_submissions
			(id, form_id, submission_data, ip_address, user_agent, respondent_email, respondent_phone, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		sub.ID, sub.FormID, data, sub.IPAddress, sub.UserAgent,
		sub.RespondentEmail, sub.RespondentPhone, sub.Status, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert submission: %w", err)
	}
	return nil
}

func (s *Store) HasRecentSubmission(ctx context.Context, formID, addr string, since time.Time) (bool, error) {
	if addr == "" {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM webform_submissions
			WHERE form_id = $1 AND ip_address = $2 AND created_at > $3
		)`, formID, addr, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: duplicate check: %w", err)
	}
	return exists, nil
}

func (s *Store) Webhooks(ctx context.Context, formID string) ([]domain.Webhook, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(form_id, ''), url, COALESCE(method, 'POST'), COALESCE(headers, '{}'), COALESCE(events, '[]'), enabled
		FROM webform_webhooks
		WHERE (form_id = $1 OR form_id IS NULL) AND enabled = TRUE`, formID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load webhooks: %w", err)
	}
	defer rows.Close()

	var out []domain.Webhook
	for rows.Next() {
		var (
			w          domain.Webhook
			rawHeaders []byte
			rawEvents  []byte
		)
		if err := rows.Scan(&w.ID, &w.FormID, &w.URL, &w.Method, &rawHeaders, &rawEvents, &w.Enabled); err != nil {
			return nil, fmt.Errorf("postgres: scan webhook: %w", err)
		}
		if err := json.Unmarshal(rawHeaders, &w.Headers); err != nil {
			return nil, fmt.Errorf("postgres: webhook %s headers: %w", w.ID, err)
		}
		if err := json.Unmarshal(rawEvents, &w.Events); err != nil {
			return nil, fmt.Errorf("postgres: webhook %s events: %w", w.ID, err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate webhooks: %w", err)
	}
	return out, nil
}
