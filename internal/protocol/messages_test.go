package protocol

import (
	"errors"
	"testing"
)

func TestParseDeviceMessageHello(t *testing.T) {
	raw := []byte(`{"type":"hello","user_id":"owner@example.com"}`)
	msg, err := ParseDeviceMessage(raw)
	if err != nil {
		t.Fatalf("ParseDeviceMessage() error = %v", err)
	}

	hello, ok := msg.(Hello)
	if !ok {
		t.Fatalf("message type = %T, want Hello", msg)
	}
	if hello.UserID != "owner@example.com" {
		t.Fatalf("unexpected hello: %+v", hello)
	}
}

func TestParseDeviceMessageRejectsHelloWithoutUser(t *testing.T) {
	if _, err := ParseDeviceMessage([]byte(`{"type":"hello","user_id":""}`)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseDeviceMessageTranscription(t *testing.T) {
	raw := []byte(`{"type":"transcription","text":"what is the capital of france","is_final":true,"ts_ms":123}`)
	msg, err := ParseDeviceMessage(raw)
	if err != nil {
		t.Fatalf("ParseDeviceMessage() error = %v", err)
	}

	tr, ok := msg.(Transcription)
	if !ok {
		t.Fatalf("message type = %T, want Transcription", msg)
	}
	if !tr.IsFinal || tr.Text != "what is the capital of france" {
		t.Fatalf("unexpected transcription: %+v", tr)
	}
}

func TestParseDeviceMessageButtonPressTolerant(t *testing.T) {
	// Firmware field values are not fully reliable; empty/odd values still parse.
	raw := []byte(`{"type":"button_press","press_class":"","side_hint":"??"}`)
	msg, err := ParseDeviceMessage(raw)
	if err != nil {
		t.Fatalf("ParseDeviceMessage() error = %v", err)
	}
	press, ok := msg.(ButtonPress)
	if !ok {
		t.Fatalf("message type = %T, want ButtonPress", msg)
	}
	if press.SideHint != "??" {
		t.Fatalf("SideHint = %q, want raw value preserved", press.SideHint)
	}
}

func TestParseDeviceMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseDeviceMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}
