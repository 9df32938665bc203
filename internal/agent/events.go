package agent

import "encoding/json"

// EventKind is the closed enumeration of wire event shapes the decoder
// understands. Anything else is KindUnrecognized and contributes nothing,
// so unknown future shapes never abort decoding.
type EventKind int

const (
	// KindTextDelta is an incremental fragment appended to the buffer.
	KindTextDelta EventKind = iota
	// KindTextComplete is a complete-so-far snapshot replacing the buffer.
	KindTextComplete
	// KindMessageDelta carries a list of typed content items to append.
	KindMessageDelta
	// KindResponse carries a final content list; its text items replace the buffer.
	KindResponse
	// KindLegacyChoice is the OpenAI-style choices shape of older stream versions.
	KindLegacyChoice
	// KindUnrecognized matches none of the known tags.
	KindUnrecognized
)

const (
	tagTextDelta    = "response.text.delta"
	tagTextComplete = "response.text"
	tagMessageDelta = "message.delta"
	tagResponse     = "response"
)

// envelope is the outer shell common to every event generation. Data stays
// raw so each kind can extract its own payload with explicit optional fields.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// textPayload is the data of response.text / response.text.delta events.
type textPayload struct {
	Text string `json:"text"`
}

// contentItem is one typed unit inside a content list. Tool items are
// recognized so they can be skipped without touching the buffer.
type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messageDeltaPayload is the data of message.delta events.
type messageDeltaPayload struct {
	Delta struct {
		Content []contentItem `json:"content"`
	} `json:"delta"`
}

// responsePayload is the data of response events.
type responsePayload struct {
	Content []contentItem `json:"content"`
}

// legacyChoice is one entry of an OpenAI-style choices list. Pointers
// distinguish an absent field from an empty one: delta.content takes
// precedence, then the choice's direct content.
type legacyChoice struct {
	Delta *struct {
		Content *string `json:"content"`
	} `json:"delta"`
	Content *string `json:"content"`
}

// legacyEnvelope is the shape probed for unknown tags: choices either at the
// top level or nested one layer under data.
type legacyEnvelope struct {
	Choices []legacyChoice  `json:"choices"`
	Data    json.RawMessage `json:"data"`
	Content json.RawMessage `json:"content"`
}

func classify(tag string) EventKind {
	switch tag {
	case tagTextDelta:
		return KindTextDelta
	case tagTextComplete:
		return KindTextComplete
	case tagMessageDelta:
		return KindMessageDelta
	case tagResponse:
		return KindResponse
	default:
		return KindLegacyChoice
	}
}
