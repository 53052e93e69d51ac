package voice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// State of the conversation loop.
type State int

const (
	StateIdle State = iota
	StateListening
	StateProcessing
	StateSpeaking
	StateAwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

const defaultExecuteDelay = 600 * time.Millisecond

// Status is the session state the UI renders.
type Status struct {
	State          string `json:"state"`
	IsListening    bool   `json:"is_listening"`
	IsProcessing   bool   `json:"is_processing"`
	Transcript     string `json:"transcript"`
	AssistantReply string `json:"assistant_reply"`
	PendingExpense bool   `json:"pending_expense"`
	PendingUpdate  bool   `json:"pending_update"`
}

type ControllerConfig struct {
	Locale string
	// ExecuteDelay lets the spoken acknowledgment start before the UI changes.
	ExecuteDelay time.Duration

	OnStateChange func(from, to State)
	OnStatus      func(Status)
}

type ControllerDeps struct {
	Capture    *Capture
	Speaker    ports.Speaker
	Resolver   ports.IntentResolver
	Dispatcher *Dispatcher
	Gate       *Gate
	History    *History
	Workspace  ports.WorkspaceSource
}

// Controller drives one conversation: listen, resolve, speak, then either
// listen again or execute the intent.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	capture    *Capture
	speaker    ports.Speaker
	resolver   ports.IntentResolver
	dispatcher *Dispatcher
	gate       *Gate
	history    *History
	workspace  ports.WorkspaceSource
	cfg        ControllerConfig
	log        *zap.Logger

	mu sync.Mutex
	// generation changes on every new session and every cancel; callbacks
	// carrying an older generation are ignored.
	generation uint64
	utterance  uint64
	state      State
	followUp   bool
	// resumed is set while a restored conversation has not been toggled yet.
	resumed    bool
	transcript string
	reply      string
	timer      *time.Timer

	inflight sync.WaitGroup
}

// NewController binds the capture callbacks. ctx bounds the session; in-flight
// model calls are only aborted by Close, not by Cancel.
func NewController(ctx context.Context, deps ControllerDeps, cfg ControllerConfig, log *zap.Logger) *Controller {
	if cfg.ExecuteDelay < 0 {
		cfg.ExecuteDelay = 0
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	c := &Controller{
		ctx:        sessionCtx,
		cancel:     cancel,
		capture:    deps.Capture,
		speaker:    deps.Speaker,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		gate:       deps.Gate,
		history:    deps.History,
		workspace:  deps.Workspace,
		cfg:        cfg,
		log:        log,
		resumed:    deps.History.Len() > 0,
	}
	c.capture.Bind(c.handleTranscript, c.handleCaptureError, func(bool) { c.publish() })
	return c
}

// DefaultControllerConfig returns the production timings.
func DefaultControllerConfig(locale string) ControllerConfig {
	return ControllerConfig{Locale: locale, ExecuteDelay: defaultExecuteDelay}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{
		State:          c.state.String(),
		IsProcessing:   c.state == StateProcessing,
		Transcript:     c.transcript,
		AssistantReply: c.reply,
	}
	c.mu.Unlock()
	st.IsListening = c.capture.Listening()
	_, st.PendingExpense = c.gate.PendingExpense()
	_, st.PendingUpdate = c.gate.PendingUpdate()
	return st
}

func (c *Controller) Gate() *Gate { return c.gate }

func (c *Controller) Capture() *Capture { return c.capture }

// Toggle cancels an active session or starts a fresh one. The first Toggle
// after a reconnect keeps the restored conversation.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	switch c.state {
	case StateListening, StateProcessing, StateSpeaking:
		c.mu.Unlock()
		c.Cancel()
		return nil
	}
	if !c.capture.Supported() {
		c.mu.Unlock()
		return ErrCaptureUnsupported
	}
	c.generation++
	gen := c.generation
	c.stopTimerLocked()
	c.transcript, c.reply = "", ""
	c.followUp = false
	if !c.resumed {
		c.history.Clear()
	}
	c.resumed = false
	done := c.transitionLocked(StateListening)
	c.mu.Unlock()

	done()
	c.publish()
	return c.listen(gen)
}

// Cancel stops listening, silences speech and forgets the conversation.
// Pending confirmations survive.
func (c *Controller) Cancel() {
	c.halt(true)
	c.publish()
}

// Close stops the session when the client goes away. The conversation is
// kept in the history store so a reconnect can pick it up. Close waits for
// in-flight resolutions, scheduled executions and the last history write.
func (c *Controller) Close() {
	c.halt(false)
	c.cancel()
	c.inflight.Wait()
	c.history.Close()
}

// halt invalidates pending callbacks and silences the client.
func (c *Controller) halt(forget bool) {
	c.mu.Lock()
	c.generation++
	c.stopTimerLocked()
	c.reply = ""
	c.followUp = false
	if forget {
		c.history.Clear()
		c.resumed = false
	}
	done := c.transitionLocked(c.restingStateLocked())
	c.mu.Unlock()

	done()
	c.capture.Stop()
	c.speaker.CancelSpeech()
}

func (c *Controller) ConfirmUpdate(ctx context.Context) (*domain.Property, error) {
	p, err := c.gate.ConfirmUpdate(ctx)
	c.settle()
	return p, err
}

func (c *Controller) ConfirmExpense(ctx context.Context) (*domain.Expense, error) {
	e, err := c.gate.ConfirmExpense(ctx)
	c.settle()
	return e, err
}

func (c *Controller) DeclineUpdate(ctx context.Context) {
	c.gate.CancelUpdate(ctx)
	c.settle()
}

func (c *Controller) DeclineExpense(ctx context.Context) {
	c.gate.CancelExpense(ctx)
	c.settle()
}

func (c *Controller) settle() {
	c.mu.Lock()
	done := func() {}
	if c.state == StateAwaitingConfirmation && !c.gate.HasPending() {
		done = c.transitionLocked(StateIdle)
	}
	c.mu.Unlock()
	done()
	c.publish()
}

func (c *Controller) listen(gen uint64) error {
	err := c.capture.Start(c.ctx)
	if err == nil {
		return nil
	}
	c.mu.Lock()
	done := func() {}
	if c.generation == gen && c.state == StateListening {
		done = c.transitionLocked(c.restingStateLocked())
	}
	c.mu.Unlock()
	done()
	c.publish()
	return err
}

func (c *Controller) handleTranscript(transcript string) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		c.log.Debug("Ignoring transcript outside listening state")
		return
	}
	gen := c.generation
	c.transcript = transcript
	c.reply = ""
	done := c.transitionLocked(StateProcessing)
	c.inflight.Add(1)
	c.mu.Unlock()

	done()
	c.publish()
	go c.resolve(gen, transcript)
}

func (c *Controller) handleCaptureError(err error) {
	c.mu.Lock()
	done := func() {}
	if c.state == StateListening {
		done = c.transitionLocked(c.restingStateLocked())
	}
	c.mu.Unlock()
	done()
	c.publish()
}

func (c *Controller) resolve(gen uint64, transcript string) {
	defer c.inflight.Done()

	ws, err := c.workspace.Workspace(c.ctx)
	if err != nil {
		c.log.Warn("Workspace unavailable, resolving without context", zap.Error(err))
		ws = domain.Workspace{}
	}
	intent := c.resolver.Resolve(c.ctx, transcript, ws, c.history.Snapshot())
	c.onResolved(gen, transcript, intent, ws)
}

func (c *Controller) onResolved(gen uint64, transcript string, intent domain.ResolvedIntent, ws domain.Workspace) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateProcessing {
		c.mu.Unlock()
		c.log.Info("Discarding intent resolved after the session was cancelled",
			zap.String("intent", string(intent.Intent)),
		)
		return
	}

	if intent.Intent == domain.IntentStopListening {
		c.reply = ""
		c.followUp = false
		c.history.Clear()
		done := c.transitionLocked(c.restingStateLocked())
		c.mu.Unlock()

		done()
		c.capture.Stop()
		c.speaker.CancelSpeech()
		c.dispatcher.Dispatch(c.ctx, intent, ws)
		c.publish()
		return
	}

	c.reply = intent.ResponseText
	c.followUp = intent.RequiresFollowUp
	c.history.Append(domain.RoleUser, transcript)
	c.history.Append(domain.RoleAssistant, intent.ResponseText)
	if !intent.RequiresFollowUp {
		c.stopTimerLocked()
		c.inflight.Add(1)
		c.timer = time.AfterFunc(c.cfg.ExecuteDelay, func() { c.execute(gen, intent, ws) })
	}
	utterance := c.nextUtteranceLocked()
	done := c.transitionLocked(StateSpeaking)
	c.mu.Unlock()

	done()
	c.publish()
	c.speak(gen, utterance, intent.ResponseText)
}

func (c *Controller) execute(gen uint64, intent domain.ResolvedIntent, ws domain.Workspace) {
	defer c.inflight.Done()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	out := c.dispatcher.Dispatch(c.ctx, intent, ws)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if out.FollowUp != "" {
		c.reply = out.FollowUp
		c.followUp = true
		c.history.Append(domain.RoleAssistant, out.FollowUp)
		utterance := c.nextUtteranceLocked()
		done := c.transitionLocked(StateSpeaking)
		c.mu.Unlock()

		done()
		c.publish()
		c.speak(gen, utterance, out.FollowUp)
		return
	}
	if intent.Intent.IsTerminal() && out.Applied {
		c.history.Clear()
	}
	done := c.transitionLocked(c.restingStateLocked())
	c.mu.Unlock()

	done()
	c.publish()
}

func (c *Controller) speak(gen, utterance uint64, text string) {
	if text == "" {
		c.onSpeechDone(gen, utterance)
		return
	}
	err := c.speaker.Speak(c.ctx, text, c.cfg.Locale, func() { c.onSpeechDone(gen, utterance) })
	if err != nil {
		c.log.Warn("Speech synthesis failed", zap.Error(err))
		c.onSpeechDone(gen, utterance)
	}
}

// onSpeechDone restarts capture when the reply asked for more input.
func (c *Controller) onSpeechDone(gen, utterance uint64) {
	c.mu.Lock()
	if gen != c.generation || utterance != c.utterance || c.state != StateSpeaking || !c.followUp {
		c.mu.Unlock()
		return
	}
	c.followUp = false
	done := c.transitionLocked(StateListening)
	c.mu.Unlock()

	done()
	c.publish()
	_ = c.listen(gen)
}

func (c *Controller) nextUtteranceLocked() uint64 {
	c.utterance++
	return c.utterance
}

func (c *Controller) restingStateLocked() State {
	if c.gate.HasPending() {
		return StateAwaitingConfirmation
	}
	return StateIdle
}

// stopTimerLocked disarms a scheduled execution. A timer that already fired
// releases its inflight slot from execute.
func (c *Controller) stopTimerLocked() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.inflight.Done()
	}
	c.timer = nil
}

// transitionLocked sets the state and returns the hook call to run once the
// lock is released.
func (c *Controller) transitionLocked(to State) func() {
	from := c.state
	c.state = to
	if from == to || c.cfg.OnStateChange == nil {
		return func() {}
	}
	hook := c.cfg.OnStateChange
	return func() { hook(from, to) }
}

func (c *Controller) publish() {
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(c.Status())
	}
}
