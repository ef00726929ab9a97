package generator

import (
	"errors"
	"fmt"
)

// User-facing texts.
const (
	MsgEmptyTopic       = "Please provide a topic or product description."
	MsgUnknownError     = "Unknown error"
	NoOutputPlaceholder = "(no output)"
)

var (
	// ErrEmptyTopic is returned by Submit when the topic is blank.
	ErrEmptyTopic = errors.New(MsgEmptyTopic)
	// ErrSuperseded is returned by Submit when a newer submission started
	// before this one resolved and its result was dropped.
	ErrSuperseded = errors.New("generation superseded by a newer request")
	// ErrMalformedResponse marks a 2xx body that is not a JSON value we can read.
	ErrMalformedResponse = errors.New("malformed JSON in response body")
)

// StatusError is a non-2xx answer of the generation API. Body is kept verbatim.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server error: %d %s", e.StatusCode, e.Body)
}

// Message turns a Submit error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknownError
}
