package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/evallife/llm-chat/internal/api"
	"github.com/evallife/llm-chat/internal/types"
	"github.com/rs/zerolog/log"
)

const invalidDataText = "API returned invalid data."

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrBusy        = errors.New("a request is already in flight")
)

// Completer turns a single prompt into a reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, cfg types.Config) (string, error)
}

// Session holds the transcript and the in-flight flag of one conversation.
//
// Submit and Deliver must be called from the goroutine that drives the UI.
// The worker started by Submit only ever writes to the results channel.
type Session struct {
	completer  Completer
	transcript []types.Entry
	inFlight   bool
	results    chan types.Entry
}

func NewSession(completer Completer) *Session {
	return &Session{
		completer: completer,
		// At most one worker exists, so its send never blocks.
		results: make(chan types.Entry, 1),
	}
}

// Submit appends prompt to the transcript and dispatches it to the completer
// in the background. The reply arrives on Results.
func (s *Session) Submit(prompt string, cfg types.Config) (types.Entry, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return types.Entry{}, ErrEmptyPrompt
	}
	if s.inFlight {
		return types.Entry{}, ErrBusy
	}

	entry := types.Entry{Speaker: types.SpeakerUser, Text: prompt}
	s.transcript = append(s.transcript, entry)
	s.inFlight = true

	log.Debug().Int("entries", len(s.transcript)).Msg("prompt dispatched")
	go s.run(prompt, cfg)
	return entry, nil
}

func (s *Session) run(prompt string, cfg types.Config) {
	reply, err := s.completer.Complete(context.Background(), prompt, cfg)
	if err != nil {
		s.results <- types.Entry{Speaker: types.SpeakerError, Text: describe(err)}
		return
	}
	s.results <- types.Entry{Speaker: types.SpeakerModel, Text: reply}
}

// describe turns a completion failure into transcript text.
func describe(err error) string {
	if errors.Is(err, api.ErrInvalidResponse) {
		return invalidDataText
	}
	return "Request failed: " + err.Error()
}

// Results delivers one entry per Submit, from the worker goroutine.
func (s *Session) Results() <-chan types.Entry {
	return s.results
}

// Deliver records a worker result and re-opens the session for submission.
func (s *Session) Deliver(entry types.Entry) {
	s.transcript = append(s.transcript, entry)
	s.inFlight = false
}

func (s *Session) InFlight() bool {
	return s.inFlight
}

func (s *Session) Transcript() []types.Entry {
	out := make([]types.Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}
