package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUser_ValidatesUsername(t *testing.T) {
	if _, err := NewUser("", RoleStudent); !errors.Is(err, ErrUsernameEmpty) {
		t.Errorf("expected ErrUsernameEmpty, got %v", err)
	}
	long := strings.Repeat("x", MaxUsernameLen+1)
	if _, err := NewUser(long, RoleStudent); !errors.Is(err, ErrUsernameTooLong) {
		t.Errorf("expected ErrUsernameTooLong, got %v", err)
	}

	u, err := NewUser("alice", RoleTeacher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == "" {
		t.Error("user must get a generated id")
	}
	if !u.IsTeacher() {
		t.Error("role not kept")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(""); err != nil || r != RoleStudent {
		t.Errorf("empty role must default to student, got %v %v", r, err)
	}
	if r, err := ParseRole("teacher"); err != nil || r != RoleTeacher {
		t.Errorf("expected teacher, got %v %v", r, err)
	}
	if _, err := ParseRole("janitor"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestNewMember_TeacherCanAlwaysSpeak(t *testing.T) {
	teacher, _ := NewUser("dr-johnson", RoleTeacher)
	student, _ := NewUser("alice", RoleStudent)

	if m := NewMember(teacher); !m.CanSpeak || !m.Muted {
		t.Errorf("teacher member: %+v", m)
	}
	if m := NewMember(student); m.CanSpeak || !m.Muted {
		t.Errorf("student member: %+v", m)
	}
}
