// Package session implements the per-participant state machine of a
// live class: hand raising, teacher-granted speak permission, and the
// local microphone/camera flags that shadow the capture devices.
//
// All transitions happen in reaction to either an inbound data-channel
// payload or a local user action. The speak grant is authoritative only
// when it arrives as a SPEAK_PERMISSION message addressed to this
// participant; everything else on the shared channel is ignored.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/protocol"
)

var (
	// ErrSpeakDenied is returned when the microphone is toggled
	// without a teacher grant.
	ErrSpeakDenied = errors.New("no permission to speak")
)

// Config seeds a SpeakSession. InitialCanSpeak carries a prior known
// grant across a reconnect; it defaults to denied.
type Config struct {
	ParticipantID   string
	InitialCanSpeak bool
	NoticeDuration  time.Duration
}

// SpeakSession owns one participant's class state for one room.
// It is discarded on leave and holds nothing across rooms.
type SpeakSession struct {
	mu sync.Mutex

	participantID string
	handRaised    bool
	canSpeak      bool
	micMuted      bool
	cameraOff     bool

	channel     core.DataChannel
	media       core.MediaControl
	unsubscribe func()

	notice      *Notice
	noticeSeq   uint64
	noticeTimer *time.Timer
	noticeDur   time.Duration

	closed bool
}

// NewSpeakSession builds a session with muted mic and camera off,
// matching the state of a participant who just entered the room.
// Media may be nil until the engine connects.
func NewSpeakSession(cfg Config, media core.MediaControl) *SpeakSession {
	dur := cfg.NoticeDuration
	if dur <= 0 {
		dur = DefaultNoticeDuration
	}
	return &SpeakSession{
		participantID: cfg.ParticipantID,
		canSpeak:      cfg.InitialCanSpeak,
		micMuted:      true,
		cameraOff:     true,
		media:         media,
		noticeDur:     dur,
	}
}

// Attach binds the session to the room's data channel and starts
// consuming inbound payloads. A previous attachment is unsubscribed.
func (s *SpeakSession) Attach(ch core.DataChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.channel = ch
	s.unsubscribe = ch.Subscribe(s.HandleData)
}

// HandleData consumes one raw payload from the shared data channel.
// Malformed traffic and messages for other participants are ignored;
// the channel carries many collaborators' messages.
func (s *SpeakSession) HandleData(raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		log.Debug().Err(err).Str("module", "session").Str("participant", s.participantID).Msg("ignoring channel payload")
		return
	}

	perm, ok := msg.(protocol.SpeakPermission)
	if !ok || perm.StudentID != s.participantID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.canSpeak = perm.Allowed
	if perm.Allowed {
		s.showNoticeLocked("Teacher granted you permission to speak", NoticeSuccess)
		log.Info().Str("module", "session").Str("participant", s.participantID).Msg("speak permission granted")
		return
	}

	// Revocation forces mute regardless of the current flag.
	s.micMuted = true
	if s.media != nil {
		if err := s.media.SetMicrophoneEnabled(context.Background(), false); err != nil {
			log.Error().Err(err).Str("module", "session").Str("participant", s.participantID).Msg("force mute failed")
		}
	}
	s.showNoticeLocked("Permission to speak was revoked", NoticeInfo)
	log.Info().Str("module", "session").Str("participant", s.participantID).Msg("speak permission revoked")
}

// RaiseHand flips the hand flag and tells the room about it on the
// reliable channel. It is a silent no-op before the channel attaches.
func (s *SpeakSession) RaiseHand(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.channel == nil {
		return nil
	}

	s.handRaised = !s.handRaised
	raw, err := protocol.Encode(protocol.HandRaised{StudentID: s.participantID, Raised: s.handRaised})
	if err != nil {
		s.handRaised = !s.handRaised
		return fmt.Errorf("encode hand raise: %w", err)
	}
	if err := s.channel.Publish(ctx, raw, core.PublishOptions{Reliable: true}); err != nil {
		s.handRaised = !s.handRaised
		s.showNoticeLocked("Could not reach the class. Try again", NoticeError)
		return fmt.Errorf("publish hand raise: %w", err)
	}

	if s.handRaised {
		s.showNoticeLocked("Hand raised. Waiting for teacher approval", NoticeInfo)
	} else {
		s.showNoticeLocked("Hand lowered", NoticeInfo)
	}
	return nil
}

// ToggleMicrophone flips the mute flag and drives the device. The
// grant check is a hard gate: without it no state changes and no
// device call is made, even if the call would succeed.
func (s *SpeakSession) ToggleMicrophone(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if !s.canSpeak {
		s.showNoticeLocked("You need permission from the teacher to speak", NoticeError)
		return ErrSpeakDenied
	}

	s.micMuted = !s.micMuted
	if s.media != nil {
		if err := s.media.SetMicrophoneEnabled(ctx, !s.micMuted); err != nil {
			// Keep the flag consistent with the real device.
			s.micMuted = !s.micMuted
			s.showNoticeLocked("Microphone is unavailable", NoticeError)
			return fmt.Errorf("set microphone: %w", err)
		}
	}

	if s.micMuted {
		s.showNoticeLocked("Microphone muted", NoticeInfo)
	} else {
		s.showNoticeLocked("Microphone unmuted", NoticeSuccess)
	}
	return nil
}

// ToggleCamera flips the camera flag and drives the device. No
// permission gate: video is not moderated.
func (s *SpeakSession) ToggleCamera(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	s.cameraOff = !s.cameraOff
	if s.media != nil {
		if err := s.media.SetCameraEnabled(ctx, !s.cameraOff); err != nil {
			s.cameraOff = !s.cameraOff
			s.showNoticeLocked("Camera is unavailable", NoticeError)
			return fmt.Errorf("set camera: %w", err)
		}
	}

	if s.cameraOff {
		s.showNoticeLocked("Camera turned off", NoticeInfo)
	} else {
		s.showNoticeLocked("Camera turned on", NoticeSuccess)
	}
	return nil
}

// ShowNotice replaces the visible notice and restarts its expiry.
func (s *SpeakSession) ShowNotice(text string, kind NoticeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.showNoticeLocked(text, kind)
}

// showNoticeLocked must run with s.mu held. Replacing a notice bumps
// the sequence so the superseded expiry becomes a no-op even if its
// timer already fired.
func (s *SpeakSession) showNoticeLocked(text string, kind NoticeKind) {
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
	}
	s.noticeSeq++
	seq := s.noticeSeq
	s.notice = &Notice{Kind: kind, Text: text, ExpiresAt: time.Now().Add(s.noticeDur)}

	s.noticeTimer = time.AfterFunc(s.noticeDur, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.noticeSeq == seq {
			s.notice = nil
		}
	})
}

// Notice returns the currently visible notice, if any.
func (s *SpeakSession) Notice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil || time.Now().After(s.notice.ExpiresAt) {
		return Notice{}, false
	}
	return *s.notice, true
}

// Close detaches the session from the channel and invalidates any
// pending notice expiry. Safe to call more than once.
func (s *SpeakSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.channel = nil
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
		s.noticeTimer = nil
	}
	s.noticeSeq++
	s.notice = nil
}

func (s *SpeakSession) ParticipantID() string { return s.participantID }

func (s *SpeakSession) HandRaised() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handRaised
}

func (s *SpeakSession) CanSpeak() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSpeak
}

func (s *SpeakSession) MicrophoneMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micMuted
}

func (s *SpeakSession) CameraOff() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraOff
}
