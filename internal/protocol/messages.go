package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies device websocket payload variants.
type MessageType string

const (
	TypeHello         MessageType = "hello"
	TypeButtonPress   MessageType = "button_press"
	TypeTranscription MessageType = "transcription"
	TypeDisplayText   MessageType = "display_text"
	TypeErrorEvent    MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Hello is the first message a device must send; it binds the connection to
// a user identity.
type Hello struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id"`
}

// ButtonPress reports a physical control event. PressClass and SideHint come
// straight from the device firmware and are not fully reliable; consumers
// must tolerate unknown values.
type ButtonPress struct {
	Type       MessageType `json:"type"`
	PressClass string      `json:"press_class"`
	SideHint   string      `json:"side_hint,omitempty"`
	TSMs       int64       `json:"ts_ms,omitempty"`
}

// Transcription carries speech-to-text output from the device. Only final
// transcriptions trigger a prompt turn.
type Transcription struct {
	Type    MessageType `json:"type"`
	Text    string      `json:"text"`
	IsFinal bool        `json:"is_final"`
	TSMs    int64       `json:"ts_ms,omitempty"`
}

// DisplayText asks the device to replace the text wall contents.
type DisplayText struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

// ParseDeviceMessage decodes one inbound device frame.
func ParseDeviceMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeHello:
		var msg Hello
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.UserID == "" {
			return nil, errors.New("invalid hello: missing user_id")
		}
		return msg, nil
	case TypeButtonPress:
		var msg ButtonPress
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeTranscription:
		var msg Transcription
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
