package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/logger"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

// FSM states for one chat interaction.
type FSMState stateless.State

var (
	StateReadyToSend FSMState = "ReadyToSend"
	StateDecoding    FSMState = "Decoding"
	StateDone        FSMState = "Done"  // Terminal: answer (or no-text outcome) produced
	StateError       FSMState = "Error" // Terminal: dispatch or decode failure
)

// FSM triggers.
type FSMTrigger stateless.Trigger

var (
	TriggerSend           FSMTrigger = "Send"
	TriggerAgentResponded FSMTrigger = "AgentResponded"
	TriggerAgentFailed    FSMTrigger = "AgentFailed"
	TriggerTextDecoded    FSMTrigger = "TextDecoded"
	TriggerDecodeFailed   FSMTrigger = "DecodeFailed"
)

// ErrEmptyQuestion is returned before any network call when the question is
// blank; the action is blocked locally.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Question is one user turn with its injected page context.
type Question struct {
	Text        string
	PageLabel   string
	Range       warehouse.DateRange
	DataSummary string
}

// Answer is the outcome of one interaction. A no-text outcome keeps the
// diagnostic event count and first-event preview.
type Answer struct {
	Text    string `json:"text"`
	NoText  bool   `json:"no_text,omitempty"`
	Events  int    `json:"events,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// Engine drives the conversation flow for a session: inject context, append
// the user turn, dispatch, decode, and append the assistant turn. One
// interaction runs at a time per session, blocking up to the dispatcher's
// timeout.
type Engine struct {
	runner Runner
}

// NewEngine creates an engine on top of a dispatcher.
func NewEngine(runner Runner) *Engine {
	return &Engine{runner: runner}
}

// Ask runs one interaction against the session using a finite state machine.
// On a dispatch failure the pending user message is rolled back so history
// never keeps an orphaned question. A decode failure leaves the history as
// dispatched (user turn kept, no assistant turn), matching the dashboard's
// behavior of surfacing the parse error inline.
func (e *Engine) Ask(ctx context.Context, sess *chat.Session, q Question) (Answer, error) {
	if strings.TrimSpace(q.Text) == "" {
		return Answer{}, ErrEmptyQuestion
	}

	type fsmContext struct {
		raw     string
		result  Result
		lastErr error
	}
	fsmCtx := &fsmContext{}

	fsm := stateless.NewStateMachine(StateReadyToSend)

	// State: ReadyToSend
	// Action: inject context, append the user message, call the agent.
	fsm.Configure(StateReadyToSend).
		PermitReentry(TriggerSend). // the initial Fire lands here and runs OnEntry
		OnEntry(func(ctx context.Context, args ...any) error {
			prompt := BuildPrompt(q.Text, q.PageLabel, q.Range, q.DataSummary)
			sess.AppendUser(prompt)
			logger.L.Debug("dispatching agent run", "session", sess.ID, "history_len", sess.Len())

			raw, err := e.runner.Run(ctx, sess.Messages())
			if err != nil {
				fsmCtx.lastErr = err
				sess.RollbackLast()
				return fsm.Fire(TriggerAgentFailed, ctx)
			}
			fsmCtx.raw = raw
			return fsm.Fire(TriggerAgentResponded, ctx)
		}).
		Permit(TriggerAgentResponded, StateDecoding).
		Permit(TriggerAgentFailed, StateError)

	// State: Decoding
	// Action: run the stream decoder over the raw body.
	fsm.Configure(StateDecoding).
		OnEntry(func(ctx context.Context, args ...any) error {
			res, err := Decode(fsmCtx.raw)
			if err != nil {
				fsmCtx.lastErr = err
				return fsm.Fire(TriggerDecodeFailed, ctx)
			}
			fsmCtx.result = res
			return fsm.Fire(TriggerTextDecoded, ctx)
		}).
		Permit(TriggerTextDecoded, StateDone).
		Permit(TriggerDecodeFailed, StateError)

	// State: Done
	// Action: append the assistant turn when text was produced. A no-text
	// outcome leaves history unchanged and is not an error.
	fsm.Configure(StateDone).
		OnEntry(func(ctx context.Context, args ...any) error {
			if !fsmCtx.result.NoText() {
				sess.AppendAssistant(fsmCtx.result.Text)
			} else {
				logger.L.Info("agent produced no text",
					"session", sess.ID, "events", fsmCtx.result.Events, "preview", fsmCtx.result.Preview)
			}
			return nil
		})

	// State: Error (terminal). fsmCtx.lastErr carries the failure.
	fsm.Configure(StateError).
		OnEntry(func(ctx context.Context, args ...any) error {
			if fsmCtx.lastErr == nil {
				fsmCtx.lastErr = errors.New("interaction reached error state without a cause")
			}
			return nil
		})

	if err := fsm.FireCtx(ctx, TriggerSend); err != nil {
		if fsmCtx.lastErr != nil {
			return Answer{}, fsmCtx.lastErr
		}
		return Answer{}, fmt.Errorf("interaction state machine: %w", err)
	}

	state, err := fsm.State(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("interaction state machine: %w", err)
	}

	switch state {
	case StateDone:
		res := fsmCtx.result
		return Answer{
			Text:    res.Text,
			NoText:  res.NoText(),
			Events:  res.Events,
			Preview: res.Preview,
		}, nil
	case StateError:
		return Answer{}, fsmCtx.lastErr
	default:
		return Answer{}, fmt.Errorf("interaction ended in unexpected state: %v", state)
	}
}
