package service

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

const (
	// DefaultSaltRotation is how often a new salt generation is minted.
	DefaultSaltRotation = 600 * time.Millisecond
	// DefaultSaltAcceptWindow is how long after creation a generation is
	// still honoured. It overlaps the next rotation so a code read by a
	// camera mid-rotation is not incorrectly rejected.
	DefaultSaltAcceptWindow = 1 * time.Second
)

var saltMax = big.NewInt(1 << 31)

// SaltRotator owns the process-wide rotating salt pair. Rotation runs on its
// own background ticker; readers always snapshot a fully-formed
// current/previous pair, never a partial update.
type SaltRotator struct {
	mu       sync.RWMutex
	current  domain.Salt
	previous domain.Salt

	rotation     time.Duration
	acceptWindow time.Duration
	logger       *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewSaltRotator(rotation, acceptWindow time.Duration, logger *slog.Logger) *SaltRotator {
	if rotation <= 0 {
		rotation = DefaultSaltRotation
	}
	if acceptWindow <= 0 {
		acceptWindow = DefaultSaltAcceptWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	now := time.Now()
	return &SaltRotator{
		current:      newSalt(now, rotation),
		previous:     newSalt(now, rotation),
		rotation:     rotation,
		acceptWindow: acceptWindow,
		logger:       logger,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background rotation ticker. Non-blocking; call Stop to
// shut the rotator down.
func (s *SaltRotator) Start() {
	go s.run()
	s.logger.Info("salt rotator started", "rotation", s.rotation, "accept_window", s.acceptWindow)
}

// Stop shuts down the background worker and blocks until it has exited.
func (s *SaltRotator) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("salt rotator stopped")
}

func (s *SaltRotator) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.rotation)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Rotate()
		case <-s.stopCh:
			return
		}
	}
}

// Rotate promotes the current generation to previous and mints a new current.
func (s *SaltRotator) Rotate() {
	fresh := newSalt(time.Now(), s.rotation)

	s.mu.Lock()
	s.previous = s.current
	s.current = fresh
	s.mu.Unlock()
}

// Snapshot returns an atomic view of both live generations plus the timing
// parameters clients need to align their sampling.
func (s *SaltRotator) Snapshot() domain.SaltPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.SaltPair{
		Current:      s.current,
		Previous:     s.previous,
		Rotation:     s.rotation,
		AcceptWindow: s.acceptWindow,
	}
}

func newSalt(now time.Time, rotation time.Duration) domain.Salt {
	n, err := rand.Int(rand.Reader, saltMax)
	if err != nil {
		// crypto/rand failing means the process has no usable entropy source
		panic("salt: failed to read random source: " + err.Error())
	}

	return domain.Salt{
		Value:     int(n.Int64()),
		CreatedAt: now,
		ExpiresAt: now.Add(rotation),
	}
}
