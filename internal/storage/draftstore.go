// Package storage persists the invoice draft between sessions. The on-disk
// format is a versioned envelope; writes trail edits by a quiet period so a
// burst of keystrokes produces one write, and the last writer wins.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"invoicegen/internal/invoice"

	"github.com/rs/zerolog/log"
)

const (
	draftFile    = "draft.json"
	sequenceFile = "sequence.json"

	// Quiet period after the last save before the envelope hits disk.
	DefaultDebounce = 400 * time.Millisecond
)

// DraftStore is a file-backed store for the draft and sequence envelopes.
// The totals engine and renderer never see the envelope format.
type DraftStore struct {
	dir      string
	debounce time.Duration

	mu      sync.Mutex
	pending *invoice.Draft
	timer   *time.Timer
}

func NewDraftStore(dir string, debounce time.Duration) (*DraftStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &DraftStore{dir: dir, debounce: debounce}, nil
}

// Load reads the persisted draft. The second return is false when no valid
// envelope exists; malformed or wrong-version envelopes are discarded rather
// than surfaced as errors.
func (s *DraftStore) Load() (invoice.Draft, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, draftFile))
	if err != nil {
		return invoice.Draft{}, false
	}
	var env invoice.DraftEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != invoice.EnvelopeVersion {
		log.Warn().Msg("discarding malformed draft envelope")
		return invoice.Draft{}, false
	}
	d := env.Draft
	invoice.SanitizeDraft(&d)
	return d, true
}

// Save schedules a debounced write of the draft. Repeated calls within the
// quiet period coalesce into a single write of the latest draft.
func (s *DraftStore) Save(d invoice.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &d
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

// Flush writes any pending draft immediately. Called on shutdown.
func (s *DraftStore) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.flushPending()
}

func (s *DraftStore) flushPending() {
	s.mu.Lock()
	d := s.pending
	s.pending = nil
	s.mu.Unlock()
	if d == nil {
		return
	}

	env := invoice.DraftEnvelope{
		Version: invoice.EnvelopeVersion,
		SavedAt: time.Now().UTC(),
		Draft:   *d,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("encoding draft envelope")
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, draftFile), raw, 0o644); err != nil {
		log.Error().Err(err).Msg("writing draft envelope")
	}
}

// Clear discards the persisted draft and sequence state.
func (s *DraftStore) Clear() {
	s.mu.Lock()
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	_ = os.Remove(filepath.Join(s.dir, draftFile))
	_ = os.Remove(filepath.Join(s.dir, sequenceFile))
}

// LoadSequence reads the invoice number sequence envelope.
func (s *DraftStore) LoadSequence() (invoice.SequenceEnvelope, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, sequenceFile))
	if err != nil {
		return invoice.SequenceEnvelope{}, false
	}
	var env invoice.SequenceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != invoice.EnvelopeVersion {
		return invoice.SequenceEnvelope{}, false
	}
	if env.NextInvoiceNo == "" {
		return invoice.SequenceEnvelope{}, false
	}
	return env, true
}

// SaveSequence writes the sequence envelope immediately; sequence advances
// are rare (one per export) and must survive a crash.
func (s *DraftStore) SaveSequence(env invoice.SequenceEnvelope) {
	env.Version = invoice.EnvelopeVersion
	raw, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("encoding sequence envelope")
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, sequenceFile), raw, 0o644); err != nil {
		log.Error().Err(err).Msg("writing sequence envelope")
	}
}
