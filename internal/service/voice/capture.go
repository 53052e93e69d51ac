package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/ports"
)

var (
	ErrCaptureUnsupported = errors.New("speech recognition not supported on this platform")
	ErrEmptyTranscript    = errors.New("no speech recognized")
)

// Capture runs one-shot recognition sessions: each Start yields at most one
// transcript or one error.
type Capture struct {
	recognizer ports.Recognizer
	locale     string
	log        *zap.Logger

	mu           sync.Mutex
	listening    bool
	onTranscript func(string)
	onError      func(error)
	onListening  func(bool)
}

func NewCapture(recognizer ports.Recognizer, locale string, log *zap.Logger) *Capture {
	return &Capture{
		recognizer: recognizer,
		locale:     locale,
		log:        log,
	}
}

// Bind wires the callbacks. Any of them may be nil.
func (c *Capture) Bind(onTranscript func(string), onError func(error), onListening func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTranscript = onTranscript
	c.onError = onError
	c.onListening = onListening
}

func (c *Capture) Supported() bool {
	return c.recognizer != nil && c.recognizer.Supported()
}

func (c *Capture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Start begins a recognition session. It is a no-op while already listening.
func (c *Capture) Start(ctx context.Context) error {
	if !c.Supported() {
		return ErrCaptureUnsupported
	}

	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	c.listening = true
	notify := c.onListening
	c.mu.Unlock()

	if notify != nil {
		notify(true)
	}

	if err := c.recognizer.Start(ctx, c.locale); err != nil {
		c.log.Warn("Speech recognition failed to start", zap.Error(err))
		c.setIdle()
		return err
	}
	return nil
}

// Stop aborts the current session. Safe to call while idle.
func (c *Capture) Stop() {
	if !c.setIdle() {
		return
	}
	if c.recognizer != nil {
		c.recognizer.Abort()
	}
}

// Deliver hands over the recognizer's final result. Results that arrive
// outside a session are dropped.
func (c *Capture) Deliver(transcript string) {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		c.log.Debug("Dropping transcript outside a capture session")
		return
	}
	onTranscript, onError := c.onTranscript, c.onError
	c.mu.Unlock()

	c.setIdle()

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		if onError != nil {
			onError(ErrEmptyTranscript)
		}
		return
	}
	if onTranscript != nil {
		onTranscript(transcript)
	}
}

// Fail reports a recognition error and returns to idle. No retry is attempted.
func (c *Capture) Fail(err error) {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return
	}
	onError := c.onError
	c.mu.Unlock()

	c.setIdle()
	c.log.Info("Speech recognition ended with error", zap.Error(err))
	if onError != nil {
		onError(err)
	}
}

func (c *Capture) setIdle() bool {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return false
	}
	c.listening = false
	notify := c.onListening
	c.mu.Unlock()

	if notify != nil {
		notify(false)
	}
	return true
}
