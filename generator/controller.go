package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"content_assistant/logger"
	"content_assistant/metrics"
)

// Controller owns the form state of the assistant and runs generations
// against a Backend. It is safe for concurrent use; the backend call runs
// outside the state lock.
type Controller struct {
	backend              Backend
	clipboard            Clipboard
	now                  func() time.Time
	newID                func() string
	discardStale         bool
	clearOutputOnFailure bool

	mu        sync.Mutex
	params    Params
	loading   bool
	output    string
	errMsg    string
	history   []HistoryEntry
	seq       uint64
	version   uint64
	listeners []func(Snapshot)
}

// Option customises a Controller.
type Option func(*Controller)

func WithClipboard(cb Clipboard) Option {
	return func(c *Controller) { c.clipboard = cb }
}

// WithClock replaces time.Now for download names and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithDiscardStale controls whether a response whose submission has been
// overtaken by a newer one is dropped (the default) or applied anyway.
func WithDiscardStale(discard bool) Option {
	return func(c *Controller) { c.discardStale = discard }
}

// WithClearOutputOnFailure makes failed requests blank the output. By default
// the output is left as it was.
func WithClearOutputOnFailure(on bool) Option {
	return func(c *Controller) { c.clearOutputOnFailure = on }
}

// NewController creates a controller whose form starts at defaults.
func NewController(backend Backend, defaults Params, opts ...Option) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid defaults: %w", err)
	}
	c := &Controller{
		backend:      backend,
		now:          time.Now,
		newID:        newHistoryID,
		discardStale: true,
		params:       defaults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newHistoryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn is called outside the state lock and may call back into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Params returns the current form fields.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetParams replaces the form fields. Invalid values leave the state as is.
func (c *Controller) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = p
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

// Submit validates the topic, posts the payload and applies the answer.
// The error it returns is the one recorded in the state, ErrEmptyTopic when
// the topic is blank, or ErrSuperseded when the answer arrived after a newer
// submission had started and was dropped.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if strings.TrimSpace(c.params.Topic) == "" {
		c.errMsg = MsgEmptyTopic
		snap := c.commitLocked()
		c.mu.Unlock()
		c.publish(snap)
		metrics.GenerationTotal.WithLabelValues(metrics.OutcomeValidation).Inc()
		return ErrEmptyTopic
	}

	c.seq++
	token := c.seq
	req := c.params
	c.loading = true
	c.errMsg = ""
	c.output = ""
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)

	payload := BuildPayload(req)
	logger.Infow("generation requested",
		"seq", token,
		"assistant", payload.Assistant,
		"platform", req.Platform,
		"template", payload.Template,
		"model", payload.Model,
	)

	metrics.InFlight.Inc()
	start := time.Now()
	text, err := c.backend.Generate(ctx, payload)
	metrics.GenerationDuration.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	metrics.InFlight.Dec()

	return c.resolve(token, req, text, err)
}

func (c *Controller) resolve(token uint64, req Params, text string, err error) error {
	c.mu.Lock()
	if c.discardStale && token != c.seq {
		latest := c.seq
		c.mu.Unlock()
		logger.Infow("dropping stale generation result", "seq", token, "latest", latest)
		metrics.GenerationTotal.WithLabelValues(metrics.OutcomeSuperseded).Inc()
		return ErrSuperseded
	}

	c.loading = false
	if err != nil {
		c.errMsg = Message(err)
		if c.clearOutputOnFailure {
			c.output = ""
		}
	} else {
		c.output = text
		out := text
		if out == "" {
			out = NoOutputPlaceholder
		}
		entry := HistoryEntry{
			ID:        c.newID(),
			Assistant: req.Assistant,
			Topic:     req.Topic,
			Platform:  req.Platform,
			Tone:      req.Tone,
			Output:    out,
			CreatedAt: c.now(),
		}
		c.history = append([]HistoryEntry{entry}, c.history...)
	}
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)

	var statusErr *StatusError
	switch {
	case err == nil:
		metrics.GenerationTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		logger.Infow("generation completed", "seq", token, "chars", len(text))
	case errors.As(err, &statusErr):
		metrics.GenerationTotal.WithLabelValues(metrics.OutcomeHTTPError).Inc()
		logger.Infow("generation rejected", "seq", token, "status", statusErr.StatusCode)
	default:
		metrics.GenerationTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		logger.Error("generation failed", err)
	}
	return err
}

// ApplyExample copies the example's topic, brand type, audience and tone
// into the form. Nothing else changes.
func (c *Controller) ApplyExample(ex Example) {
	c.mu.Lock()
	c.params.Topic = ex.Topic
	c.params.BrandType = ex.BrandType
	c.params.Audience = ex.Audience
	c.params.Tone = ex.Tone
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// Clear empties the topic, the output and the error.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.params.Topic = ""
	c.output = ""
	c.errMsg = ""
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// CopyOutput writes the output to the clipboard. It does nothing when there
// is no output.
func (c *Controller) CopyOutput() {
	c.mu.Lock()
	out := c.output
	c.mu.Unlock()
	if out == "" {
		return
	}
	if c.clipboard == nil {
		logger.Debugw("no clipboard configured, copy ignored")
		return
	}
	if err := c.clipboard.WriteAll(out); err != nil {
		// Copy failures never reach the error state; the user sees nothing.
		metrics.ClipboardFailures.Inc()
		logger.Debugw("clipboard write failed, ignored", "error", err)
	}
}

// DownloadOutput builds the plain-text file for the current output. ok is
// false when there is no output.
func (c *Controller) DownloadOutput() (d Download, ok bool) {
	c.mu.Lock()
	out := c.output
	assistant := c.params.Assistant
	platform := c.params.Platform
	c.mu.Unlock()
	if out == "" {
		return Download{}, false
	}
	metrics.DownloadsTotal.Inc()
	return Download{
		Filename:    fmt.Sprintf("%s_%s_%d.txt", strings.ToLower(assistant), platform, c.now().UnixMilli()),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(out),
	}, true
}

func (c *Controller) commitLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Params:  c.params,
		Loading: c.loading,
		Output:  c.output,
		Error:   c.errMsg,
		History: append(make([]HistoryEntry, 0, len(c.history)), c.history...),
		Version: c.version,
	}
}

func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
