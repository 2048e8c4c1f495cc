package retouch

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/retouchlab/retouch/ratelimiter"
)

// Phase identifies the current display state of a session. Exactly one
// phase is current at any time.
type Phase string

const (
	PhaseIdle       Phase = "idle"       // no image uploaded yet
	PhaseReady      Phase = "ready"      // image encoded, nothing in flight
	PhaseGenerating Phase = "generating" // edit request in flight
	PhaseSucceeded  Phase = "succeeded"  // result image available
	PhaseFailed     Phase = "failed"     // error message available
)

// Snapshot is the single source of truth handed to presentation layers.
// Images are shared by value; a snapshot never mutates after it is taken.
type Snapshot struct {
	Phase    Phase
	Epoch    uint64
	Original *EncodedImage
	Result   *EncodedImage
	Text     string
	Err      string
}

// failurePrefix is the fixed user-facing prefix for generation failures.
const failurePrefix = "Image generation failed"

// FailureMessage converts an edit error into the user-facing message stored
// in the failed display state: the fixed prefix plus the underlying error's
// text verbatim.
func FailureMessage(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Err != nil {
		return failurePrefix + ": " + genErr.Err.Error()
	}
	return failurePrefix + ": " + err.Error()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets a structured logger for the session.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLimiter guards generate actions with a rate limiter. A rejected
// attempt fails immediately with *RateLimitError; it is never queued.
func WithLimiter(limiter ratelimiter.Limiter) SessionOption {
	return func(s *Session) {
		s.limiter = limiter
	}
}

// WithStorage sets a storage backend used by SaveResult.
func WithStorage(storage Storage) SessionOption {
	return func(s *Session) {
		s.storage = storage
	}
}

// WithEditConfig sets the edit configuration applied to every generate
// action of the session.
func WithEditConfig(cfg *EditConfig) SessionOption {
	return func(s *Session) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// Session owns the interaction state machine: it sequences the encoder and
// an injected ImageEditor, enforces the at-most-one-in-flight invariant, and
// maps every outcome to a displayable Snapshot.
//
// State transitions:
//
//	Idle       -> Ready      on a successful upload
//	Ready      -> Generating on a generate action with image + instruction
//	Generating -> Succeeded  on editor success
//	Generating -> Failed     on editor failure
//	any state  -> Ready      on a new upload (prior result/error discarded)
//
// Each upload advances the session epoch; a generate action captures the
// epoch it was issued under and its outcome is discarded silently when a
// newer upload has superseded it.
type Session struct {
	editor  ImageEditor
	cfg     *EditConfig
	logger  zerolog.Logger
	limiter ratelimiter.Limiter
	storage Storage

	mu        sync.Mutex
	phase     Phase
	epoch     uint64
	original  *EncodedImage
	result    *EncodedImage
	text      string
	errMsg    string
	listeners []func(Snapshot)
}

// NewSession creates a session around an injected editor.
func NewSession(editor ImageEditor, opts ...SessionOption) *Session {
	s := &Session{
		editor: editor,
		cfg:    DefaultConfig(),
		logger: zerolog.Nop(),
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener notified on every state transition. The
// listener receives the snapshot taken at transition time and must not call
// back into the session synchronously.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current display state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Upload encodes a newly selected image and resets the session to Ready,
// discarding any prior result or error. A failed encode leaves the session
// state untouched and returns *EncodingError.
func (s *Session) Upload(r io.Reader, mimeType string) (Snapshot, error) {
	img, err := Encode(r, mimeType)
	if err != nil {
		s.logger.Error().Err(err).Str("mime_type", mimeType).Msg("image encode failed")
		return s.Snapshot(), err
	}
	return s.acceptUpload(img)
}

// UploadBytes is Upload for callers that already hold the raw bytes.
func (s *Session) UploadBytes(data []byte, mimeType string) (Snapshot, error) {
	img, err := EncodeBytes(data, mimeType)
	if err != nil {
		s.logger.Error().Err(err).Str("mime_type", mimeType).Msg("image encode failed")
		return s.Snapshot(), err
	}
	return s.acceptUpload(img)
}

func (s *Session) acceptUpload(img EncodedImage) (Snapshot, error) {
	s.mu.Lock()
	s.epoch++ // supersedes any in-flight generation
	s.original = &img
	s.result = nil
	s.text = ""
	s.errMsg = ""
	s.phase = PhaseReady
	snap, listeners := s.transitionLocked()
	s.mu.Unlock()

	s.logger.Debug().Uint64("epoch", snap.Epoch).Str("mime_type", img.MIMEType).Msg("image uploaded")
	publish(snap, listeners)
	return snap, nil
}

// Generate issues one edit exchange for the current image and the given
// instruction. It is a guarded no-op when the instruction is empty, when no
// image is present, or when a generation is already in flight; in those
// cases no request is issued and the state is unchanged.
//
// Remote failures do not propagate as panics or global errors: they are
// recorded in the Failed display state and also returned so programmatic
// callers can inspect them.
func (s *Session) Generate(ctx context.Context, instruction string) (Snapshot, error) {
	if err := ValidateInstruction(instruction); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if s.phase == PhaseGenerating {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrGenerationPending
	}
	if s.original == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrNoImage
	}

	if s.limiter != nil && !s.limiter.TryConsume(1) {
		rlErr := &RateLimitError{
			RetryAfter: s.limiter.TimeUntilAvailable(1),
			Model:      s.cfg.Model.String(),
		}
		s.phase = PhaseFailed
		s.errMsg = FailureMessage(rlErr)
		snap, listeners := s.transitionLocked()
		s.mu.Unlock()

		s.logger.Warn().Dur("retry_after", rlErr.RetryAfter).Msg("generate rejected by rate limiter")
		publish(snap, listeners)
		return snap, rlErr
	}

	img := *s.original
	epoch := s.epoch
	s.phase = PhaseGenerating
	s.errMsg = ""
	snap, listeners := s.transitionLocked()
	s.mu.Unlock()
	publish(snap, listeners)

	s.logger.Debug().
		Str("model", s.cfg.Model.String()).
		Int("instruction_length", len(instruction)).
		Int("image_bytes", len(img.Data)).
		Msg("starting image edit")

	start := time.Now()
	res, err := s.editor.Edit(ctx, img, instruction, s.cfg)
	duration := time.Since(start)

	s.mu.Lock()
	if s.epoch != epoch {
		// A newer upload superseded this request; drop the outcome.
		s.logger.Debug().Uint64("stale_epoch", epoch).Uint64("epoch", s.epoch).Msg("discarding stale edit result")
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	if err != nil {
		s.phase = PhaseFailed
		s.errMsg = FailureMessage(err)
		snap, listeners := s.transitionLocked()
		s.mu.Unlock()

		s.logger.Error().Err(err).Dur("duration", duration).Msg("edit failed")
		publish(snap, listeners)
		return snap, err
	}

	resultImg := res.Image
	s.result = &resultImg
	s.text = res.Text
	s.phase = PhaseSucceeded
	snap, listeners = s.transitionLocked()
	s.mu.Unlock()

	s.logger.Info().
		Dur("duration", duration).
		Str("result_mime_type", resultImg.MIMEType).
		Msg("edit completed")
	publish(snap, listeners)
	return snap, nil
}

// SaveResult writes the current generated image to the configured storage
// under basePath. It fails with ErrNoResult when no result is available and
// ErrStorageNotConfigured when no storage was injected.
func (s *Session) SaveResult(ctx context.Context, basePath string) (StorageResult, error) {
	s.mu.Lock()
	var img EncodedImage
	if s.result != nil {
		img = *s.result
	}
	s.mu.Unlock()

	if img.IsZero() {
		return StorageResult{}, ErrNoResult
	}
	return SaveImage(ctx, s.storage, img, basePath)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase: s.phase,
		Epoch: s.epoch,
		Text:  s.text,
		Err:   s.errMsg,
	}
	if s.original != nil {
		o := *s.original
		snap.Original = &o
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// transitionLocked captures the snapshot and listener set for publishing
// after the lock is released.
func (s *Session) transitionLocked() (Snapshot, []func(Snapshot)) {
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	return s.snapshotLocked(), listeners
}

func publish(snap Snapshot, listeners []func(Snapshot)) {
	for _, fn := range listeners {
		fn(snap)
	}
}
