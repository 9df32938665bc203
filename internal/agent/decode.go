package agent

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/comigor/snowpatrol/internal/logger"
)

const (
	ssePrefix     = "data:"
	sseTerminator = "[DONE]"
	previewLimit  = 200
)

// ErrMalformedResponse reports a body that neither SSE framing nor whole-body
// JSON framing could parse. It is distinct from a parsed stream that simply
// carried no text, which is not an error.
var ErrMalformedResponse = errors.New("agent response is neither SSE-framed nor valid JSON")

// Result is the outcome of decoding one raw agent response body.
type Result struct {
	// Text is the accumulated answer; empty means a no-text outcome.
	Text string
	// Events is the number of successfully parsed wire events.
	Events int
	// Preview is a truncated rendering of the first parsed event, kept for
	// diagnostics when no text was extracted.
	Preview string
}

// NoText reports whether decoding succeeded but produced no answer text.
func (r Result) NoText() bool { return r.Text == "" }

// Decode converts a raw response body into the accumulated assistant text.
// The body may be SSE-framed, a bare JSON array of events, or a single JSON
// event; any mixture of protocol generations may appear within one stream.
// Malformed individual records are discarded so one bad record never loses
// the rest; only a body unparsable by both framings is an error.
func Decode(raw string) (Result, error) {
	events := frameSSE(raw)
	if len(events) == 0 {
		var err error
		events, err = frameFallback(raw)
		if err != nil {
			return Result{}, err
		}
	}

	var buf strings.Builder
	for _, ev := range events {
		interpret(ev, &buf)
	}

	res := Result{Text: buf.String(), Events: len(events)}
	if len(events) > 0 {
		res.Preview = truncate(string(events[0]), previewLimit)
	}
	return res, nil
}

// frameSSE splits the body on blank-line record boundaries and keeps every
// data: payload that parses as JSON. The [DONE] sentinel and records without
// the data: prefix are discarded; so are unparsable payloads.
func frameSSE(raw string) []json.RawMessage {
	var events []json.RawMessage
	for _, chunk := range strings.Split(raw, "\n\n") {
		if !strings.HasPrefix(chunk, ssePrefix) {
			continue
		}
		payload := strings.TrimSpace(chunk[len(ssePrefix):])
		if payload == "" || payload == sseTerminator {
			continue
		}
		if !json.Valid([]byte(payload)) {
			logger.L.Debug("discarding unparsable SSE payload", "payload", truncate(payload, previewLimit))
			continue
		}
		events = append(events, json.RawMessage(payload))
	}
	return events
}

// frameFallback treats the whole body as one JSON value: a list is the event
// list, any other valid value is wrapped as a single event.
func frameFallback(raw string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return list, nil
	}
	if json.Valid([]byte(trimmed)) {
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}
	return nil, ErrMalformedResponse
}

// interpret applies one event to the text buffer and reports the kind it was
// handled as. Delta kinds append; snapshot kinds replace, because providers
// periodically resend the complete text and appending would duplicate it.
func interpret(raw json.RawMessage, buf *strings.Builder) EventKind {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Non-object events (numbers, strings, lists) carry no text.
		return KindUnrecognized
	}

	switch classify(env.Event) {
	case KindTextDelta:
		var p textPayload
		if err := json.Unmarshal(env.Data, &p); err == nil && p.Text != "" {
			buf.WriteString(p.Text)
		}
		return KindTextDelta

	case KindTextComplete:
		var p textPayload
		if err := json.Unmarshal(env.Data, &p); err == nil && p.Text != "" {
			buf.Reset()
			buf.WriteString(p.Text)
		}
		return KindTextComplete

	case KindMessageDelta:
		var p messageDeltaPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			for _, item := range p.Delta.Content {
				if item.Type == "text" {
					buf.WriteString(item.Text)
				}
				// tool_use and tool_results items never touch the buffer.
			}
		}
		return KindMessageDelta

	case KindResponse:
		var p responsePayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			for _, item := range p.Content {
				// Replacement, not accumulation: the last text item wins.
				if item.Type == "text" && item.Text != "" {
					buf.Reset()
					buf.WriteString(item.Text)
				}
			}
		}
		return KindResponse

	default:
		return interpretLegacy(raw, buf)
	}
}

// interpretLegacy probes an unknown tag for the OpenAI-style choices shape,
// nested one level under data when a data object is present. Independently a
// top-level string content field is appended as well.
func interpretLegacy(raw json.RawMessage, buf *strings.Builder) EventKind {
	var env legacyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return KindUnrecognized
	}

	choices := env.Choices
	if len(env.Data) > 0 {
		var nested struct {
			Choices []legacyChoice `json:"choices"`
		}
		// A data field that is present but not an object shadows the
		// top-level choices, yielding none.
		choices = nil
		if err := json.Unmarshal(env.Data, &nested); err == nil {
			choices = nested.Choices
		}
	}

	matched := false
	for _, c := range choices {
		switch {
		case c.Delta != nil && c.Delta.Content != nil:
			buf.WriteString(*c.Delta.Content)
			matched = true
		case c.Content != nil:
			buf.WriteString(*c.Content)
			matched = true
		}
	}

	if len(env.Content) > 0 {
		var s string
		if err := json.Unmarshal(env.Content, &s); err == nil {
			buf.WriteString(s)
			matched = true
		}
	}

	if matched {
		return KindLegacyChoice
	}
	return KindUnrecognized
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
