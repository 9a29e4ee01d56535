package protocol

import (
	"errors"
	"testing"
)

func TestDecode_SpeakPermission(t *testing.T) {
	raw := []byte(`{"type":"SPEAK_PERMISSION","studentId":"alice","allowed":true}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	sp, ok := msg.(SpeakPermission)
	if !ok {
		t.Fatalf("expected SpeakPermission, got %T", msg)
	}
	if sp.StudentID != "alice" || !sp.Allowed {
		t.Errorf("wrong fields: %+v", sp)
	}
}

func TestDecode_HandRaised(t *testing.T) {
	raw := []byte(`{"type":"HAND_RAISED","studentId":"bob","raised":true}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	hr, ok := msg.(HandRaised)
	if !ok {
		t.Fatalf("expected HandRaised, got %T", msg)
	}
	if hr.StudentID != "bob" || !hr.Raised {
		t.Errorf("wrong fields: %+v", hr)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	for _, raw := range []string{"", "{", "not json", `"just a string"`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestDecode_MissingStudentID(t *testing.T) {
	raw := []byte(`{"type":"SPEAK_PERMISSION","allowed":true}`)
	if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecode_ForeignType(t *testing.T) {
	raw := []byte(`{"type":"CHAT","studentId":"alice","text":"hi"}`)
	if _, err := Decode(raw); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestEncode_HandRaised_RoundTrip(t *testing.T) {
	raw, err := Encode(HandRaised{StudentID: "carol", Raised: true})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	hr, ok := msg.(HandRaised)
	if !ok {
		t.Fatalf("expected HandRaised, got %T", msg)
	}
	if hr.StudentID != "carol" || !hr.Raised {
		t.Errorf("round trip changed fields: %+v", hr)
	}
}
