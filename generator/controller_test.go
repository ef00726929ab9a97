package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend answers every call with the same result.
type stubBackend struct {
	mu    sync.Mutex
	calls []Payload
	text  string
	err   error
}

func (s *stubBackend) Generate(_ context.Context, p Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)
	return s.text, s.err
}

func (s *stubBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// gatedBackend holds every call until the test replies to it.
type gatedBackend struct {
	calls chan *gatedCall
}

type gatedCall struct {
	payload Payload
	reply   chan gatedReply
}

type gatedReply struct {
	text string
	err  error
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{calls: make(chan *gatedCall, 4)}
}

func (g *gatedBackend) Generate(_ context.Context, p Payload) (string, error) {
	call := &gatedCall{payload: p, reply: make(chan gatedReply, 1)}
	g.calls <- call
	r := <-call.reply
	return r.text, r.err
}

type fakeClipboard struct {
	written []string
	err     error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, text)
	return nil
}

var fixedNow = time.UnixMilli(1735689600123)

func newTestController(t *testing.T, backend Backend, opts ...Option) *Controller {
	t.Helper()
	ids := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
	}
	c, err := NewController(backend, DefaultParams(), append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func setTopic(t *testing.T, c *Controller, topic string) {
	t.Helper()
	p := c.Params()
	p.Topic = topic
	require.NoError(t, c.SetParams(p))
}

func TestNewController_Validation(t *testing.T) {
	_, err := NewController(nil, DefaultParams())
	assert.Error(t, err)

	bad := DefaultParams()
	bad.Platform = "Fax"
	_, err = NewController(&stubBackend{}, bad)
	assert.Error(t, err)
}

func TestSubmit_EmptyTopicSkipsNetwork(t *testing.T) {
	for _, topic := range []string{"", "   ", "\n\t "} {
		t.Run(fmt.Sprintf("%q", topic), func(t *testing.T) {
			backend := &stubBackend{text: "never"}
			c := newTestController(t, backend)
			setTopic(t, c, topic)

			err := c.Submit(context.Background())

			assert.ErrorIs(t, err, ErrEmptyTopic)
			assert.Equal(t, 0, backend.callCount())
			snap := c.Snapshot()
			assert.Equal(t, MsgEmptyTopic, snap.Error)
			assert.False(t, snap.Loading)
			assert.Empty(t, snap.History)
		})
	}
}

func TestSubmit_SuccessUsesOutputVerbatim(t *testing.T) {
	backend := &stubBackend{text: "  **Five tips**\n"}
	c := newTestController(t, backend)
	setTopic(t, c, "5 tips for remote work")

	require.NoError(t, c.Submit(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, "  **Five tips**\n", snap.Output)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
	require.Len(t, snap.History, 1)
	assert.Equal(t, HistoryEntry{
		ID:        "id-1",
		Assistant: "Zeus",
		Topic:     "5 tips for remote work",
		Platform:  "LinkedIn",
		Tone:      "professional",
		Output:    "  **Five tips**\n",
		CreatedAt: fixedNow,
	}, snap.History[0])

	require.Equal(t, 1, backend.callCount())
	assert.Equal(t, "templates/blog_outline.txt", backend.calls[0].Template)
}

func TestSubmit_EmptyTextRecordsPlaceholder(t *testing.T) {
	c := newTestController(t, &stubBackend{text: ""})
	setTopic(t, c, "topic")

	require.NoError(t, c.Submit(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, "", snap.Output)
	require.Len(t, snap.History, 1)
	assert.Equal(t, NoOutputPlaceholder, snap.History[0].Output)
}

func TestSubmit_HistoryIsPrepended(t *testing.T) {
	backend := &stubBackend{}
	c := newTestController(t, backend)

	for i, topic := range []string{"first", "second", "third"} {
		backend.text = "out " + topic
		setTopic(t, c, topic)
		require.NoError(t, c.Submit(context.Background()))
		assert.Len(t, c.Snapshot().History, i+1)
	}

	h := c.Snapshot().History
	assert.Equal(t, "third", h[0].Topic)
	assert.Equal(t, "second", h[1].Topic)
	assert.Equal(t, "first", h[2].Topic)
	assert.Equal(t, "id-3", h[0].ID)
}

func TestSubmit_HTTPFailure(t *testing.T) {
	backend := &stubBackend{text: "good"}
	c := newTestController(t, backend)
	setTopic(t, c, "topic")
	require.NoError(t, c.Submit(context.Background()))

	backend.text = ""
	backend.err = &StatusError{StatusCode: 500, Body: `{"detail":"Gemini SDK missing"}`}
	err := c.Submit(context.Background())

	require.Error(t, err)
	snap := c.Snapshot()
	assert.Equal(t, `Server error: 500 {"detail":"Gemini SDK missing"}`, snap.Error)
	assert.Contains(t, snap.Error, "500")
	assert.Contains(t, snap.Error, `{"detail":"Gemini SDK missing"}`)
	assert.Len(t, snap.History, 1)
	assert.False(t, snap.Loading)
}

func TestSubmit_FailureLeavesOutputAsItWasDuringTheCall(t *testing.T) {
	backend := newGatedBackend()
	c := newTestController(t, backend)
	setTopic(t, c, "topic")

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	call := <-backend.calls

	during := c.Snapshot()
	assert.True(t, during.Loading)
	assert.Empty(t, during.Error)

	call.reply <- gatedReply{err: &StatusError{StatusCode: 502, Body: "bad gateway"}}
	require.Error(t, <-done)

	after := c.Snapshot()
	assert.Equal(t, during.Output, after.Output)
	assert.Empty(t, after.History)
	assert.False(t, after.Loading)
}

func TestSubmit_TransportFailure(t *testing.T) {
	c := newTestController(t, &stubBackend{err: errors.New("dial tcp 127.0.0.1:8000: connection refused")})
	setTopic(t, c, "topic")

	err := c.Submit(context.Background())

	require.Error(t, err)
	snap := c.Snapshot()
	assert.Equal(t, "dial tcp 127.0.0.1:8000: connection refused", snap.Error)
	assert.Empty(t, snap.History)
	assert.False(t, snap.Loading)
}

func TestSubmit_ErrorWithoutMessageUsesFallback(t *testing.T) {
	c := newTestController(t, &stubBackend{err: errors.New("")})
	setTopic(t, c, "topic")

	require.Error(t, c.Submit(context.Background()))
	assert.Equal(t, MsgUnknownError, c.Snapshot().Error)
}

func TestSubmit_ClearsPreviousError(t *testing.T) {
	backend := newGatedBackend()
	c := newTestController(t, backend)

	require.ErrorIs(t, c.Submit(context.Background()), ErrEmptyTopic)
	require.Equal(t, MsgEmptyTopic, c.Snapshot().Error)

	setTopic(t, c, "topic")
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	call := <-backend.calls
	assert.Empty(t, c.Snapshot().Error)

	call.reply <- gatedReply{text: "ok"}
	require.NoError(t, <-done)
}

func TestSubmit_StaleResponseIsDiscarded(t *testing.T) {
	backend := newGatedBackend()
	c := newTestController(t, backend)

	setTopic(t, c, "first")
	doneA := make(chan error, 1)
	go func() { doneA <- c.Submit(context.Background()) }()
	callA := <-backend.calls

	setTopic(t, c, "second")
	doneB := make(chan error, 1)
	go func() { doneB <- c.Submit(context.Background()) }()
	callB := <-backend.calls

	callB.reply <- gatedReply{text: "B"}
	require.NoError(t, <-doneB)

	callA.reply <- gatedReply{text: "A"}
	assert.ErrorIs(t, <-doneA, ErrSuperseded)

	snap := c.Snapshot()
	assert.Equal(t, "B", snap.Output)
	assert.False(t, snap.Loading)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "second", snap.History[0].Topic)
}

func TestSubmit_StaleResponseDoesNotClearLoading(t *testing.T) {
	backend := newGatedBackend()
	c := newTestController(t, backend)

	setTopic(t, c, "first")
	doneA := make(chan error, 1)
	go func() { doneA <- c.Submit(context.Background()) }()
	callA := <-backend.calls

	doneB := make(chan error, 1)
	go func() { doneB <- c.Submit(context.Background()) }()
	callB := <-backend.calls

	callA.reply <- gatedReply{err: errors.New("boom")}
	assert.ErrorIs(t, <-doneA, ErrSuperseded)
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Error)

	callB.reply <- gatedReply{text: "B"}
	require.NoError(t, <-doneB)
	assert.False(t, c.Snapshot().Loading)
}

func TestSubmit_LastResolverWinsWhenDiscardDisabled(t *testing.T) {
	backend := newGatedBackend()
	c := newTestController(t, backend, WithDiscardStale(false))

	setTopic(t, c, "first")
	doneA := make(chan error, 1)
	go func() { doneA <- c.Submit(context.Background()) }()
	callA := <-backend.calls

	setTopic(t, c, "second")
	doneB := make(chan error, 1)
	go func() { doneB <- c.Submit(context.Background()) }()
	callB := <-backend.calls

	callB.reply <- gatedReply{text: "B"}
	require.NoError(t, <-doneB)
	callA.reply <- gatedReply{text: "A"}
	require.NoError(t, <-doneA)

	snap := c.Snapshot()
	assert.Equal(t, "A", snap.Output)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "first", snap.History[0].Topic)
	assert.Equal(t, "second", snap.History[1].Topic)
}

func TestSubmit_ClearOutputOnFailure(t *testing.T) {
	for _, clearOnFailure := range []bool{false, true} {
		t.Run(fmt.Sprintf("clear=%v", clearOnFailure), func(t *testing.T) {
			backend := newGatedBackend()
			c := newTestController(t, backend, WithDiscardStale(false), WithClearOutputOnFailure(clearOnFailure))
			setTopic(t, c, "topic")

			doneA := make(chan error, 1)
			go func() { doneA <- c.Submit(context.Background()) }()
			callA := <-backend.calls
			doneB := make(chan error, 1)
			go func() { doneB <- c.Submit(context.Background()) }()
			callB := <-backend.calls

			callA.reply <- gatedReply{text: "A"}
			require.NoError(t, <-doneA)
			callB.reply <- gatedReply{err: &StatusError{StatusCode: 503, Body: "busy"}}
			require.Error(t, <-doneB)

			snap := c.Snapshot()
			assert.Equal(t, "Server error: 503 busy", snap.Error)
			if clearOnFailure {
				assert.Equal(t, "", snap.Output)
			} else {
				assert.Equal(t, "A", snap.Output)
			}
		})
	}
}

func TestApplyExample_OnlyTouchesExampleFields(t *testing.T) {
	c := newTestController(t, &stubBackend{text: "out"})
	setTopic(t, c, "old topic")
	require.NoError(t, c.Submit(context.Background()))

	p := c.Params()
	p.Assistant = "Crev"
	p.Platform = "Instagram"
	p.Model = "gemini-2.5-pro"
	p.Temperature = 0.2
	p.MaxTokens = 900
	require.NoError(t, c.SetParams(p))
	before := c.Snapshot()

	ex, ok := ExampleAt(0)
	require.True(t, ok)
	c.ApplyExample(ex)
	once := c.Snapshot()
	c.ApplyExample(ex)
	twice := c.Snapshot()

	assert.Equal(t, ex.Topic, once.Topic)
	assert.Equal(t, ex.BrandType, once.BrandType)
	assert.Equal(t, ex.Audience, once.Audience)
	assert.Equal(t, ex.Tone, once.Tone)
	assert.Equal(t, once.Params, twice.Params)

	assert.Equal(t, "Crev", once.Assistant)
	assert.Equal(t, "Instagram", once.Platform)
	assert.Equal(t, "gemini-2.5-pro", once.Model)
	assert.Equal(t, 0.2, once.Temperature)
	assert.Equal(t, 900, once.MaxTokens)
	assert.Equal(t, before.Output, once.Output)
	assert.Equal(t, before.Error, once.Error)
	assert.Equal(t, before.History, once.History)
}

func TestClear_ResetsTopicOutputAndErrorOnly(t *testing.T) {
	backend := &stubBackend{text: "out"}
	c := newTestController(t, backend)
	p := c.Params()
	p.Topic = "topic"
	p.BrandType = "SaaS startup"
	p.Audience = "founders"
	p.Assistant = "Crev"
	p.Platform = "X"
	require.NoError(t, c.SetParams(p))
	require.NoError(t, c.Submit(context.Background()))
	before := c.Snapshot()

	c.Clear()

	after := c.Snapshot()
	assert.Equal(t, "", after.Topic)
	assert.Equal(t, "", after.Output)
	assert.Equal(t, "", after.Error)
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, "Crev", after.Assistant)
	assert.Equal(t, "X", after.Platform)
	assert.Equal(t, "SaaS startup", after.BrandType)
	assert.Equal(t, "founders", after.Audience)
	assert.Equal(t, before.Model, after.Model)
	assert.Equal(t, before.Temperature, after.Temperature)
	assert.Equal(t, before.MaxTokens, after.MaxTokens)
}

func TestCopyOutput(t *testing.T) {
	t.Run("no output is a no-op", func(t *testing.T) {
		cb := &fakeClipboard{}
		c := newTestController(t, &stubBackend{}, WithClipboard(cb))
		c.CopyOutput()
		assert.Empty(t, cb.written)
	})

	t.Run("copies current output", func(t *testing.T) {
		cb := &fakeClipboard{}
		c := newTestController(t, &stubBackend{text: "copy me"}, WithClipboard(cb))
		setTopic(t, c, "topic")
		require.NoError(t, c.Submit(context.Background()))

		c.CopyOutput()
		assert.Equal(t, []string{"copy me"}, cb.written)
	})

	t.Run("failure is not surfaced", func(t *testing.T) {
		cb := &fakeClipboard{err: errors.New("no display")}
		c := newTestController(t, &stubBackend{text: "copy me"}, WithClipboard(cb))
		setTopic(t, c, "topic")
		require.NoError(t, c.Submit(context.Background()))
		before := c.Snapshot()

		c.CopyOutput()

		after := c.Snapshot()
		assert.Empty(t, after.Error)
		assert.Equal(t, before.Version, after.Version)
	})
}

func TestDownloadOutput(t *testing.T) {
	c := newTestController(t, &stubBackend{text: "file body"})

	_, ok := c.DownloadOutput()
	assert.False(t, ok)

	p := c.Params()
	p.Topic = "topic"
	p.Platform = "Instagram"
	require.NoError(t, c.SetParams(p))
	require.NoError(t, c.Submit(context.Background()))

	d, ok := c.DownloadOutput()
	require.True(t, ok)
	assert.Equal(t, "zeus_Instagram_1735689600123.txt", d.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", d.ContentType)
	assert.Equal(t, []byte("file body"), d.Content)
}

func TestSubscribe_ReceivesEveryChange(t *testing.T) {
	c := newTestController(t, &stubBackend{text: "out"})
	var mu sync.Mutex
	var versions []uint64
	var last Snapshot
	c.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, s.Version)
		last = s
	})

	setTopic(t, c, "topic")
	require.NoError(t, c.Submit(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	// SetParams, submit start, submit resolve
	assert.Equal(t, []uint64{1, 2, 3}, versions)
	assert.Equal(t, "out", last.Output)
	assert.False(t, last.Loading)
}

func TestSetParams_RejectsInvalid(t *testing.T) {
	c := newTestController(t, &stubBackend{})
	before := c.Snapshot()

	p := c.Params()
	p.Temperature = 2
	assert.Error(t, c.SetParams(p))

	assert.Equal(t, before, c.Snapshot())
}
