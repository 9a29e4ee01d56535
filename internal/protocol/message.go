// Package protocol defines the classroom data-channel messages and
// their JSON codec. The channel is shared and heterogeneous, so decode
// failures are reported as typed errors the caller can choose to
// ignore rather than treat as faults.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeSpeakPermission = "SPEAK_PERMISSION"
	TypeHandRaised      = "HAND_RAISED"
)

var (
	// ErrMalformed marks payloads that are not valid JSON or are
	// missing required fields.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType marks well-formed JSON whose type belongs to
	// another collaborator on the shared channel.
	ErrUnknownType = errors.New("unknown message type")
)

// Message is the closed set of payloads this component understands.
type Message interface {
	messageType() string
}

// SpeakPermission is sent by a teacher to grant or revoke a single
// student's right to unmute.
type SpeakPermission struct {
	StudentID string `json:"studentId"`
	Allowed   bool   `json:"allowed"`
}

// HandRaised is sent by a student to request moderator attention.
type HandRaised struct {
	StudentID string `json:"studentId"`
	Raised    bool   `json:"raised"`
}

func (SpeakPermission) messageType() string { return TypeSpeakPermission }
func (HandRaised) messageType() string      { return TypeHandRaised }

type envelope struct {
	Type      string `json:"type"`
	StudentID string `json:"studentId"`
	Allowed   bool   `json:"allowed"`
	Raised    bool   `json:"raised"`
}

// Decode validates raw as one of the known messages. It never panics
// on foreign traffic: bad JSON or shape yields ErrMalformed, a foreign
// type yields ErrUnknownType.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Type {
	case TypeSpeakPermission:
		if env.StudentID == "" {
			return nil, fmt.Errorf("%w: %s without studentId", ErrMalformed, env.Type)
		}
		return SpeakPermission{StudentID: env.StudentID, Allowed: env.Allowed}, nil
	case TypeHandRaised:
		if env.StudentID == "" {
			return nil, fmt.Errorf("%w: %s without studentId", ErrMalformed, env.Type)
		}
		return HandRaised{StudentID: env.StudentID, Raised: env.Raised}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Encode renders m as the wire JSON understood by every client.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case SpeakPermission:
		return json.Marshal(struct {
			Type string `json:"type"`
			SpeakPermission
		}{TypeSpeakPermission, v})
	case HandRaised:
		return json.Marshal(struct {
			Type string `json:"type"`
			HandRaised
		}{TypeHandRaised, v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
}
