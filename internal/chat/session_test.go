package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evallife/llm-chat/internal/api"
	"github.com/evallife/llm-chat/internal/config"
	"github.com/evallife/llm-chat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls   atomic.Int32
	release chan struct{}
	reply   string
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, cfg types.Config) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func receive(t *testing.T, s *Session, within time.Duration) types.Entry {
	t.Helper()
	select {
	case e := <-s.Results():
		return e
	case <-time.After(within):
		t.Fatalf("no result within %s", within)
		return types.Entry{}
	}
}

func TestSubmit_BlankPromptIsRejected(t *testing.T) {
	fake := &fakeCompleter{}
	s := NewSession(fake)

	for _, prompt := range []string{"", "   ", "\n\t \n"} {
		_, err := s.Submit(prompt, config.Defaults())
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}

	assert.Empty(t, s.Transcript())
	assert.False(t, s.InFlight())
	assert.Equal(t, int32(0), fake.calls.Load())
}

func TestSubmit_ReplyFlow(t *testing.T) {
	fake := &fakeCompleter{release: make(chan struct{}), reply: "hello"}
	s := NewSession(fake)

	entry, err := s.Submit("  Hi there \n", config.Defaults())
	require.NoError(t, err)
	assert.Equal(t, types.Entry{Speaker: types.SpeakerUser, Text: "Hi there"}, entry)
	assert.Equal(t, []types.Entry{entry}, s.Transcript())
	assert.True(t, s.InFlight())

	close(fake.release)
	result := receive(t, s, time.Second)
	assert.Equal(t, types.Entry{Speaker: types.SpeakerModel, Text: "hello"}, result)

	// The worker never touches the transcript itself.
	assert.Len(t, s.Transcript(), 1)
	assert.True(t, s.InFlight())

	s.Deliver(result)
	assert.Equal(t, []types.Entry{entry, result}, s.Transcript())
	assert.False(t, s.InFlight())
}

func TestSubmit_BusyWhileInFlight(t *testing.T) {
	fake := &fakeCompleter{release: make(chan struct{}), reply: "done"}
	s := NewSession(fake)

	_, err := s.Submit("first", config.Defaults())
	require.NoError(t, err)

	_, err = s.Submit("second", config.Defaults())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, s.Transcript(), 1)

	close(fake.release)
	s.Deliver(receive(t, s, time.Second))
	assert.Equal(t, int32(1), fake.calls.Load())

	fake.release = nil
	_, err = s.Submit("third", config.Defaults())
	require.NoError(t, err)
	s.Deliver(receive(t, s, time.Second))
	assert.Equal(t, int32(2), fake.calls.Load())
	assert.Len(t, s.Transcript(), 4)
}

func TestSubmit_ErrorBecomesErrorEntry(t *testing.T) {
	fake := &fakeCompleter{err: api.ErrInvalidResponse}
	s := NewSession(fake)

	_, err := s.Submit("Hi", config.Defaults())
	require.NoError(t, err)

	result := receive(t, s, time.Second)
	assert.Equal(t, types.Entry{Speaker: types.SpeakerError, Text: "API returned invalid data."}, result)
	s.Deliver(result)
	assert.False(t, s.InFlight())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "API returned invalid data.", describe(api.ErrInvalidResponse))
	assert.Equal(t, "API returned invalid data.", describe(fmt.Errorf("wrapped: %w", api.ErrInvalidResponse)))
	assert.Equal(t, "Request failed: dial tcp: connection refused", describe(errors.New("dial tcp: connection refused")))
}

func TestSession_WithEndpoint(t *testing.T) {
	t.Run("successful reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
		}))
		t.Cleanup(srv.Close)

		s := NewSession(api.NewClient(srv.URL))
		_, err := s.Submit("Hi", config.Defaults())
		require.NoError(t, err)
		assert.True(t, s.InFlight())

		s.Deliver(receive(t, s, 5*time.Second))
		assert.Equal(t, []types.Entry{
			{Speaker: types.SpeakerUser, Text: "Hi"},
			{Speaker: types.SpeakerModel, Text: "hello"},
		}, s.Transcript())
		assert.False(t, s.InFlight())
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		t.Cleanup(srv.Close)

		s := NewSession(api.NewClient(srv.URL))
		_, err := s.Submit("Hi", config.Defaults())
		require.NoError(t, err)

		result := receive(t, s, 5*time.Second)
		assert.Equal(t, types.SpeakerError, result.Speaker)
		assert.Equal(t, "API returned invalid data.", result.Text)
	})

	t.Run("stalled endpoint times out", func(t *testing.T) {
		var hits atomic.Int32
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		client := api.NewClient(srv.URL)
		client.SetTimeout(100 * time.Millisecond)
		s := NewSession(client)
		_, err := s.Submit("Hi", config.Defaults())
		require.NoError(t, err)

		_, err = s.Submit("again", config.Defaults())
		assert.ErrorIs(t, err, ErrBusy)

		result := receive(t, s, 5*time.Second)
		assert.Equal(t, types.SpeakerError, result.Speaker)
		assert.Contains(t, result.Text, "Request failed: ")

		s.Deliver(result)
		assert.False(t, s.InFlight())
		assert.Len(t, s.Transcript(), 2)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMarkdown(&buf, []types.Entry{
		{Speaker: types.SpeakerUser, Text: "Hi"},
		{Speaker: types.SpeakerModel, Text: "**hello**"},
		{Speaker: types.SpeakerError, Text: "API returned invalid data."},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"## YOU\n\nHi\n\n---\n\n"+
			"## LLM\n\n**hello**\n\n---\n\n"+
			"## ERROR\n\nAPI returned invalid data.\n\n---\n\n",
		buf.String())
}
