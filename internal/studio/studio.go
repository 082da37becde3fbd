// Package studio orchestrates the life of a submission: classify it, build
// the effective prompt, materialize attachments, insert an optimistic pending
// record, dispatch exactly one provider call, and settle the record in both
// the in-memory view and the durable store.
package studio

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"brushup/internal/blob"
	"brushup/internal/config"
	"brushup/internal/db"
	"brushup/internal/errors"
	"brushup/internal/provider"
	"brushup/internal/record"
)

// Submission is a raw user submission from any surface.
type Submission struct {
	Text        string
	Attachments []Attachment
	// Provider selects the target provider; empty means the configured
	// default.
	Provider record.Provider
}

// Pending is the immediate response to an accepted submission. Record is the
// optimistic pending entry; Done delivers the settled record (terminal state)
// exactly once and is then closed.
type Pending struct {
	Record *record.Record
	Done   <-chan *record.Record
}

// Studio is the request lifecycle controller.
type Studio struct {
	database   *sql.DB
	cfg        *config.Config
	gateway    provider.Selector
	history    *History
	blobs      *blob.Store
	httpClient *http.Client
	logger     *slog.Logger

	wg sync.WaitGroup
}

// Option configures a Studio.
type Option func(*Studio)

// WithGateway overrides the provider selector (tests use a fake gateway).
func WithGateway(sel provider.Selector) Option {
	return func(s *Studio) { s.gateway = sel }
}

// WithBlobStore wires the upload store so blob refs can be materialized.
func WithBlobStore(store *blob.Store) Option {
	return func(s *Studio) { s.blobs = store }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) { s.logger = logger }
}

// WithHTTPClient overrides the client used to fetch remote attachment refs.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Studio) { s.httpClient = client }
}

// New creates a Studio and loads the history view from the store.
func New(database *sql.DB, cfg *config.Config, opts ...Option) (*Studio, error) {
	s := &Studio{
		database:   database,
		cfg:        cfg,
		gateway:    provider.NewSelector(cfg),
		history:    NewHistory(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, err := db.GetAll(database)
	if err != nil {
		return nil, err
	}
	s.history.Load(records)
	return s, nil
}

// History returns the in-memory view model.
func (s *Studio) History() *History {
	return s.history
}

// Submit runs the lifecycle for one submission. An empty submission (no text,
// no attachments) returns (nil, nil): nothing is recorded and no call is
// made. An unreadable attachment aborts with an error before any record
// exists. Every accepted submission yields a pending record immediately; the
// provider call settles it asynchronously.
func (s *Studio) Submit(ctx context.Context, sub Submission) (*Pending, error) {
	mode, ok := Classify(sub.Text, len(sub.Attachments))
	if !ok {
		return nil, nil
	}

	choice := sub.Provider
	if choice == "" {
		choice = record.Provider(s.cfg.DefaultProvider)
	}
	if !record.KnownProvider(choice) {
		return nil, errors.NewInvalidRequest("unknown provider " + string(choice))
	}

	prompt := EffectivePrompt(s.cfg.EditInstruction, sub.Text, mode)

	// Materialization happens before the optimistic insert so a failed
	// source aborts cleanly with no record, and nothing ephemeral is ever
	// persisted.
	attachments, err := s.materialize(ctx, sub.Attachments)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &record.Record{
		ID:          newID(now),
		Prompt:      prompt,
		Provider:    choice,
		Mode:        mode,
		State:       record.StatePending,
		CreatedAt:   now,
		Attachments: attachments,
	}

	// Optimistic insert: view first, then the store. The store write is
	// best-effort; its failure never blocks the visible flow.
	s.history.Prepend(rec)
	if err := db.Put(s.database, rec); err != nil {
		s.logger.Warn("optimistic insert failed", "id", rec.ID, "error", err)
	}

	done := make(chan *record.Record, 1)
	// The call must outlive the submitting request; deletion never cancels
	// it, it only suppresses the write-back.
	callCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.dispatch(callCtx, rec)
		settled := s.settle(rec.ID, result, err)
		done <- settled
		close(done)
	}()

	return &Pending{Record: rec.Clone(), Done: done}, nil
}

// dispatch makes exactly one gateway call for the record.
func (s *Studio) dispatch(ctx context.Context, rec *record.Record) (string, error) {
	gw, err := s.gateway(ctx, rec.Provider)
	if err != nil {
		return "", err
	}
	if rec.Mode == record.ModeEdit {
		return gw.Edit(ctx, rec.Prompt, rec.Attachments)
	}
	return gw.Generate(ctx, rec.Prompt)
}

// settle transitions the record to its terminal state in view and store and
// returns the settled record. The store write is an UPDATE: attempted even
// when the user deleted the record mid-flight, but incapable of resurrecting
// it. Store failures are logged, never surfaced.
func (s *Studio) settle(id string, resultImage string, callErr error) *record.Record {
	state := record.StateSucceeded
	failure := ""
	if callErr != nil {
		state = record.StateFailed
		failure = callErr.Error()
		resultImage = ""
	}

	inView := s.history.Update(id, func(r *record.Record) {
		r.State = state
		r.ResultImage = resultImage
		r.FailureMessage = failure
	})
	if !inView {
		s.logger.Debug("settled record no longer in view", "id", id)
	}

	updated, err := db.UpdateResult(s.database, id, state, resultImage, failure)
	if err != nil {
		s.logger.Warn("settlement write failed", "id", id, "error", err)
	} else if !updated {
		s.logger.Debug("settlement write skipped, record deleted", "id", id)
	}

	settled, ok := s.history.Get(id)
	if !ok {
		// Deleted while in flight; report the outcome without reviving it.
		settled = &record.Record{ID: id, State: state, ResultImage: resultImage, FailureMessage: failure}
	}
	return settled
}

// Delete removes a record from view and store. Deleting a pending record
// abandons interest in its outcome; the in-flight call is not aborted, but
// its settlement will no longer be visible. Unknown ids are a no-op.
func (s *Studio) Delete(id string) error {
	s.history.Remove(id)
	return db.Delete(s.database, id)
}

// Clear removes every record from view and store. Surfaces must confirm with
// the user before calling this.
func (s *Studio) Clear() error {
	s.history.Clear()
	return db.Clear(s.database)
}

// Wait blocks until all in-flight submissions have settled. Used on shutdown
// and in tests.
func (s *Studio) Wait() {
	s.wg.Wait()
}

// newID builds a ULID from the submission instant plus random entropy, so ids
// are unique and sort chronologically.
func newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
}
