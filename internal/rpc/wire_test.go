package rpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrameReply(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"id":4,"result":{"frameId":"F1"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if frame.Kind != FrameReply || frame.ID != 4 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if !frame.IsReplyTo(4) || frame.IsReplyTo(5) {
		t.Fatal("reply must match only its own id")
	}
	if string(frame.Result) != `{"frameId":"F1"}` {
		t.Fatalf("unexpected result: %s", frame.Result)
	}
}

func TestDecodeFrameErrorReply(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"id":2,"error":{"code":-32601,"message":"'Nope.nope' wasn't found"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if frame.Kind != FrameReply || frame.Error == nil {
		t.Fatalf("expected error reply, got %+v", frame)
	}
	if frame.Error.Code != -32601 {
		t.Fatalf("unexpected code: %d", frame.Error.Code)
	}
}

func TestDecodeFrameEvent(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"method":"Page.frameStoppedLoading","params":{"frameId":"F1"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !frame.IsEvent("Page.frameStoppedLoading") {
		t.Fatalf("expected event, got %+v", frame)
	}
	if frame.IsReplyTo(0) {
		t.Fatal("events never match a reply id")
	}

	var params struct {
		FrameID string `json:"frameId"`
	}
	if err := frame.DecodeParams(&params); err != nil {
		t.Fatalf("decode params failed: %v", err)
	}
	if params.FrameID != "F1" {
		t.Fatalf("unexpected frame id: %q", params.FrameID)
	}
}

func TestDecodeFrameEventWithoutParams(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"method":"Runtime.executionContextsCleared"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(frame.Params) != "{}" {
		t.Fatalf("expected empty params object, got %s", frame.Params)
	}
}

func TestDecodeFrameRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"id":3}`,
		`{"params":{}}`,
	}
	for _, raw := range cases {
		if _, err := DecodeFrame([]byte(raw)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("%s: expected ErrMalformedFrame, got %v", raw, err)
		}
	}
}

func TestRequestEncoding(t *testing.T) {
	payload, err := json.Marshal(Request{ID: 9, Method: "Page.navigate", Params: map[string]any{"url": "file:///tmp/x.html"}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"id":9,"method":"Page.navigate","params":{"url":"file:///tmp/x.html"}}`
	if string(payload) != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", payload, want)
	}
}

func TestDecodeParamsRejectsReplies(t *testing.T) {
	frame := Frame{Kind: FrameReply, ID: 1}
	if err := frame.DecodeParams(&struct{}{}); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}
