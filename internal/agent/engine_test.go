package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

type fakeRunner struct {
	body     string
	err      error
	lastSent []chat.Message
}

func (f *fakeRunner) Run(ctx context.Context, messages []chat.Message) (string, error) {
	f.lastSent = messages
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

func testQuestion(text string) Question {
	window, _ := warehouse.ParseWindow("2025-08-18", "2025-09-18")
	return Question{
		Text:        text,
		PageLabel:   "Cost Analysis",
		Range:       window.Full(),
		DataSummary: "Cost Analysis Summary:\n- Total Credits: 12.00",
	}
}

func TestEngineAsk_AppendsBothTurns(t *testing.T) {
	runner := &fakeRunner{body: "data: {\"event\":\"response.text\",\"data\":{\"text\":\"It was BI_ANALYST.\"}}\n\n"}
	engine := NewEngine(runner)
	sess := chat.NewSession()

	answer, err := engine.Ask(context.Background(), sess, testQuestion("Who spent the most?"))
	require.NoError(t, err)
	require.Equal(t, "It was BI_ANALYST.", answer.Text)
	require.False(t, answer.NoText)

	require.Equal(t, 2, sess.Len())
	msgs := sess.Messages()
	require.Equal(t, chat.RoleUser, msgs[0].Role)
	require.Equal(t, chat.RoleAssistant, msgs[1].Role)
	require.Equal(t, "It was BI_ANALYST.", msgs[1].Text())

	// Context injection wraps the question with page label, range and summary.
	prompt := msgs[0].Text()
	require.Contains(t, prompt, "Cost Analysis dashboard page")
	require.Contains(t, prompt, "Aug 18, 2025 to Sep 18, 2025 (32 days selected)")
	require.Contains(t, prompt, "Total Credits: 12.00")
	require.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "Who spent the most?"))

	// The dispatcher saw the full history including the new user turn.
	require.Len(t, runner.lastSent, 1)
	require.Equal(t, chat.RoleUser, runner.lastSent[0].Role)
}

func TestEngineAsk_RollbackOnDispatchFailure(t *testing.T) {
	sess := chat.NewSession()
	sess.AppendUser("earlier question")
	sess.AppendAssistant("earlier answer")
	before := sess.Messages()

	runner := &fakeRunner{err: &HTTPError{Status: 503, Reason: "503 Service Unavailable", Excerpt: "overloaded"}}
	engine := NewEngine(runner)

	_, err := engine.Ask(context.Background(), sess, testQuestion("will fail"))
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 503, httpErr.Status)

	// History is exactly what it was before the failed send.
	require.Equal(t, before, sess.Messages())
}

func TestEngineAsk_DecodeFailureKeepsUserTurn(t *testing.T) {
	runner := &fakeRunner{body: "complete garbage, not SSE, not JSON"}
	engine := NewEngine(runner)
	sess := chat.NewSession()

	_, err := engine.Ask(context.Background(), sess, testQuestion("hi"))
	require.ErrorIs(t, err, ErrMalformedResponse)

	// The question was dispatched, so it stays; no assistant turn appears.
	require.Equal(t, 1, sess.Len())
	require.Equal(t, chat.RoleUser, sess.Messages()[0].Role)
}

func TestEngineAsk_NoTextOutcomeLeavesHistoryUnchanged(t *testing.T) {
	runner := &fakeRunner{body: "data: {\"event\":\"metadata\",\"data\":{\"usage\":1}}\n\n"}
	engine := NewEngine(runner)
	sess := chat.NewSession()

	answer, err := engine.Ask(context.Background(), sess, testQuestion("hi"))
	require.NoError(t, err)
	require.True(t, answer.NoText)
	require.Equal(t, 1, answer.Events)
	require.NotEmpty(t, answer.Preview)

	// No assistant message is appended for a no-text outcome.
	require.Equal(t, 1, sess.Len())
}

func TestEngineAsk_EmptyQuestionBlockedLocally(t *testing.T) {
	runner := &fakeRunner{body: "unused"}
	engine := NewEngine(runner)
	sess := chat.NewSession()

	_, err := engine.Ask(context.Background(), sess, testQuestion("   "))
	require.ErrorIs(t, err, ErrEmptyQuestion)
	require.Equal(t, 0, sess.Len())
	require.Nil(t, runner.lastSent)
}

func TestEngineAsk_ContextCancellation(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	engine := NewEngine(runner)
	sess := chat.NewSession()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := engine.Ask(ctx, sess, testQuestion("slow"))
	require.Error(t, err)
	require.Equal(t, 0, sess.Len())
}
