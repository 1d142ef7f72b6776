package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFrame indicates an inbound message that is neither a reply nor an event.
var ErrMalformedFrame = errors.New("malformed devtools frame")

// Request is one outbound command frame.
type Request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

// Pending is a dispatched request still waiting for its reply.
type Pending struct {
	ID     int64
	Method string
	Params any
	SentAt time.Time
}

type FrameKind int

const (
	FrameInvalid FrameKind = iota
	FrameReply
	FrameEvent
)

func (kind FrameKind) String() string {
	switch kind {
	case FrameReply:
		return "reply"
	case FrameEvent:
		return "event"
	default:
		return "invalid"
	}
}

// Error is the error member of a failed command reply.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Frame is one decoded inbound message: a reply to a command, or an event.
type Frame struct {
	Kind   FrameKind
	ID     int64
	Result json.RawMessage
	Error  *Error
	Method string
	Params json.RawMessage
	Raw    json.RawMessage
}

// DecodeFrame classifies one inbound message. A frame carrying an id is a
// reply; a frame with a method and no id is an event.
func DecodeFrame(raw []byte) (Frame, error) {
	var envelope struct {
		ID     *int64          `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	frame := Frame{
		Raw: append(json.RawMessage(nil), raw...),
	}
	switch {
	case envelope.ID != nil:
		if envelope.Result == nil && envelope.Error == nil {
			return Frame{}, fmt.Errorf("%w: reply %d has neither result nor error", ErrMalformedFrame, *envelope.ID)
		}
		frame.Kind = FrameReply
		frame.ID = *envelope.ID
		frame.Result = nullToEmpty(envelope.Result)
		frame.Error = envelope.Error
	case envelope.Method != "":
		frame.Kind = FrameEvent
		frame.Method = envelope.Method
		frame.Params = nullToEmpty(envelope.Params)
	default:
		return Frame{}, fmt.Errorf("%w: missing id and method", ErrMalformedFrame)
	}
	return frame, nil
}

func (frame Frame) IsReplyTo(id int64) bool {
	return frame.Kind == FrameReply && frame.ID == id
}

func (frame Frame) IsEvent(method string) bool {
	return frame.Kind == FrameEvent && frame.Method == method
}

// DecodeParams unmarshals an event's params into target.
func (frame Frame) DecodeParams(target any) error {
	if frame.Kind != FrameEvent {
		return fmt.Errorf("%w: %s frame has no params", ErrMalformedFrame, frame.Kind)
	}
	if err := json.Unmarshal(frame.Params, target); err != nil {
		return fmt.Errorf("decode %s params: %w", frame.Method, err)
	}
	return nil
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return json.RawMessage("{}")
	}
	return raw
}
