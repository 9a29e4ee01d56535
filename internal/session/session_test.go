package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/core/mocks"
	"github.com/campuslive/classroom/internal/protocol"
)

func newSession(t *testing.T, canSpeak bool) (*SpeakSession, *mocks.MockMediaControl) {
	t.Helper()
	ctrl := gomock.NewController(t)
	media := mocks.NewMockMediaControl(ctrl)
	s := NewSpeakSession(Config{ParticipantID: "alice", InitialCanSpeak: canSpeak}, media)
	t.Cleanup(s.Close)
	return s, media
}

func grant(id string, allowed bool) []byte {
	raw, _ := protocol.Encode(protocol.SpeakPermission{StudentID: id, Allowed: allowed})
	return raw
}

func TestToggleMicrophone_WithoutGrant_IsRejected(t *testing.T) {
	s, _ := newSession(t, false)

	err := s.ToggleMicrophone(context.Background())

	require.ErrorIs(t, err, ErrSpeakDenied)
	assert.True(t, s.MicrophoneMuted(), "mute flag must not change")
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Kind)
	assert.Equal(t, "You need permission from the teacher to speak", n.Text)
	// No device expectation was set: gomock fails the test on any call.
}

func TestToggleMicrophone_WithGrant_DrivesDevice(t *testing.T) {
	s, media := newSession(t, true)
	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), true).Return(nil)

	require.NoError(t, s.ToggleMicrophone(context.Background()))

	assert.False(t, s.MicrophoneMuted())
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Microphone unmuted", n.Text)
	assert.Equal(t, NoticeSuccess, n.Kind)
}

func TestToggleMicrophone_DeviceFailure_RevertsFlag(t *testing.T) {
	s, media := newSession(t, true)
	devErr := errors.New("no capture device")
	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), true).Return(devErr)

	err := s.ToggleMicrophone(context.Background())

	require.ErrorIs(t, err, devErr)
	assert.True(t, s.MicrophoneMuted(), "flag must revert on device failure")
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Kind)
}

func TestHandleData_Revocation_ForcesMute(t *testing.T) {
	s, media := newSession(t, true)
	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), true).Return(nil)
	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), false).Return(nil)

	require.NoError(t, s.ToggleMicrophone(context.Background()))
	require.False(t, s.MicrophoneMuted())

	s.HandleData(grant("alice", false))

	assert.False(t, s.CanSpeak())
	assert.True(t, s.MicrophoneMuted(), "revocation must force mute")
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Permission to speak was revoked", n.Text)
	assert.Equal(t, NoticeInfo, n.Kind)
}

func TestHandleData_Grant(t *testing.T) {
	s, _ := newSession(t, false)

	s.HandleData(grant("alice", true))

	assert.True(t, s.CanSpeak())
	assert.True(t, s.MicrophoneMuted(), "grant alone must not unmute")
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Teacher granted you permission to speak", n.Text)
	assert.Equal(t, NoticeSuccess, n.Kind)
}

func TestHandleData_OtherStudent_IsIgnored(t *testing.T) {
	s, _ := newSession(t, false)

	s.HandleData(grant("bob", true))

	assert.False(t, s.CanSpeak())
	_, ok := s.Notice()
	assert.False(t, ok, "foreign grants must not produce notices")
}

func TestHandleData_UnrelatedTraffic_IsIgnored(t *testing.T) {
	s, _ := newSession(t, false)

	for _, raw := range [][]byte{
		[]byte("not json at all"),
		[]byte(`{"type":"CHAT","text":"hello"}`),
		[]byte(`{"type":"HAND_RAISED","studentId":"bob","raised":true}`),
		[]byte(`{}`),
		nil,
	} {
		s.HandleData(raw)
	}

	assert.False(t, s.CanSpeak())
	assert.False(t, s.HandRaised())
	assert.True(t, s.MicrophoneMuted())
	assert.True(t, s.CameraOff())
	_, ok := s.Notice()
	assert.False(t, ok)
}

func TestRaiseHand_BeforeAttach_IsNoop(t *testing.T) {
	s, _ := newSession(t, false)

	require.NoError(t, s.RaiseHand(context.Background()))

	assert.False(t, s.HandRaised())
	_, ok := s.Notice()
	assert.False(t, ok)
}

func TestRaiseHand_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, _ := newSession(t, false)
	ch := mocks.NewMockDataChannel(ctrl)
	ch.EXPECT().Subscribe(gomock.Any()).Return(func() {})

	// Hand raises are requests for moderator attention; losing them
	// is a functional defect, so delivery must be reliable.
	var published [][]byte
	ch.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Eq(core.PublishOptions{Reliable: true})).
		Times(2).
		DoAndReturn(func(_ context.Context, payload []byte, _ core.PublishOptions) error {
			published = append(published, payload)
			return nil
		})

	s.Attach(ch)

	require.NoError(t, s.RaiseHand(context.Background()))
	assert.True(t, s.HandRaised())
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Hand raised. Waiting for teacher approval", n.Text)

	require.NoError(t, s.RaiseHand(context.Background()))
	assert.False(t, s.HandRaised(), "second toggle returns to the original state")
	n, ok = s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Hand lowered", n.Text)

	require.Len(t, published, 2)
	first, err := protocol.Decode(published[0])
	require.NoError(t, err)
	second, err := protocol.Decode(published[1])
	require.NoError(t, err)
	assert.Equal(t, protocol.HandRaised{StudentID: "alice", Raised: true}, first)
	assert.Equal(t, protocol.HandRaised{StudentID: "alice", Raised: false}, second)
}

func TestRaiseHand_PublishFailure_RevertsFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, _ := newSession(t, false)
	ch := mocks.NewMockDataChannel(ctrl)
	ch.EXPECT().Subscribe(gomock.Any()).Return(func() {})
	ch.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))
	s.Attach(ch)

	err := s.RaiseHand(context.Background())

	require.Error(t, err)
	assert.False(t, s.HandRaised())
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Kind)
}

func TestToggleCamera_IsUngated(t *testing.T) {
	s, media := newSession(t, false)
	media.EXPECT().SetCameraEnabled(gomock.Any(), true).Return(nil)
	media.EXPECT().SetCameraEnabled(gomock.Any(), false).Return(nil)

	require.NoError(t, s.ToggleCamera(context.Background()))
	assert.False(t, s.CameraOff())
	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Camera turned on", n.Text)

	require.NoError(t, s.ToggleCamera(context.Background()))
	assert.True(t, s.CameraOff())
	n, ok = s.Notice()
	require.True(t, ok)
	assert.Equal(t, "Camera turned off", n.Text)
}

func TestShowNotice_ReplacementRestartsExpiry(t *testing.T) {
	media := mocks.NewMockMediaControl(gomock.NewController(t))
	s := NewSpeakSession(Config{ParticipantID: "alice", NoticeDuration: 100 * time.Millisecond}, media)
	defer s.Close()

	s.ShowNotice("first", NoticeInfo)
	time.Sleep(60 * time.Millisecond)
	s.ShowNotice("second", NoticeSuccess)

	// 120ms after "first": it would have expired, but "second" is
	// still inside its own window.
	time.Sleep(60 * time.Millisecond)
	n, ok := s.Notice()
	require.True(t, ok, "replacement notice must still be visible")
	assert.Equal(t, "second", n.Text)

	time.Sleep(80 * time.Millisecond)
	_, ok = s.Notice()
	assert.False(t, ok, "notice must expire after its own duration")
}

func TestClose_CancelsNoticeAndUnsubscribes(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, _ := newSession(t, false)
	ch := mocks.NewMockDataChannel(ctrl)
	unsubscribed := false
	ch.EXPECT().Subscribe(gomock.Any()).Return(func() { unsubscribed = true })
	s.Attach(ch)

	s.ShowNotice("visible", NoticeInfo)
	s.Close()
	s.Close() // idempotent

	assert.True(t, unsubscribed)
	_, ok := s.Notice()
	assert.False(t, ok)
	assert.NoError(t, s.RaiseHand(context.Background()), "closed session ignores actions")
	assert.False(t, s.HandRaised())
}

func TestInitialCanSpeak_SeedsGrant(t *testing.T) {
	s, media := newSession(t, true)
	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), true).Return(nil)

	require.NoError(t, s.ToggleMicrophone(context.Background()))
	assert.False(t, s.MicrophoneMuted())
}

// TestClassFlow walks a full class for one participant: denied
// toggle, grant, unmute, revocation with forced mute.
func TestClassFlow(t *testing.T) {
	ctx := context.Background()
	s, media := newSession(t, false)

	err := s.ToggleMicrophone(ctx)
	require.ErrorIs(t, err, ErrSpeakDenied)
	assert.True(t, s.MicrophoneMuted())

	s.HandleData(grant("alice", true))
	require.True(t, s.CanSpeak())

	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), true).Return(nil)
	require.NoError(t, s.ToggleMicrophone(ctx))
	assert.False(t, s.MicrophoneMuted())

	media.EXPECT().SetMicrophoneEnabled(gomock.Any(), false).Return(nil)
	s.HandleData(grant("alice", false))
	assert.False(t, s.CanSpeak())
	assert.True(t, s.MicrophoneMuted())
}
