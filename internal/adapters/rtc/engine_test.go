package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/protocol"
)

// connectPair wires two engines over a local offer/answer exchange and
// waits until both data channels are open.
func connectPair(t *testing.T) (*Engine, *Engine) {
	t.Helper()

	offerer, err := NewEngine(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(offerer.Close)

	answerer, err := NewEngine(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(answerer.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, offerer.Start(ctx))
	require.NoError(t, answerer.Start(ctx))

	offer, err := offerer.CreateOfferAndSet()
	require.NoError(t, err)
	answer, err := answerer.AcceptOffer(*offer)
	require.NoError(t, err)
	require.NoError(t, offerer.ApplyAnswer(*answer))

	channelsOpen := func(e *Engine) func() bool {
		return func() bool {
			return e.reliable.ReadyState() == webrtc.DataChannelStateOpen &&
				e.lossy.ReadyState() == webrtc.DataChannelStateOpen
		}
	}
	require.Eventually(t, channelsOpen(offerer), 10*time.Second, 20*time.Millisecond,
		"offerer channels never opened")
	require.Eventually(t, channelsOpen(answerer), 10*time.Second, 20*time.Millisecond,
		"answerer channels never opened")
	return offerer, answerer
}

func TestEngine_PublishReachesPeer(t *testing.T) {
	a, b := connectPair(t)
	ctx := context.Background()

	seen := make(chan []byte, 1)
	unsubscribe := b.Subscribe(func(payload []byte) {
		select {
		case seen <- payload:
		default:
		}
	})
	defer unsubscribe()

	raw, err := protocol.Encode(protocol.SpeakPermission{StudentID: "alice", Allowed: true})
	require.NoError(t, err)
	require.NoError(t, a.Publish(ctx, raw, core.PublishOptions{Reliable: true}))

	select {
	case payload := <-seen:
		msg, err := protocol.Decode(payload)
		require.NoError(t, err)
		perm, ok := msg.(protocol.SpeakPermission)
		require.True(t, ok, "peer must receive the speak permission as sent")
		assert.Equal(t, "alice", perm.StudentID)
		assert.True(t, perm.Allowed)
	case <-time.After(5 * time.Second):
		t.Fatal("peer never received the payload")
	}
}

func TestEngine_UnsubscribeStopsDelivery(t *testing.T) {
	a, b := connectPair(t)
	ctx := context.Background()

	seen := make(chan []byte, 1)
	unsubscribe := b.Subscribe(func(payload []byte) {
		select {
		case seen <- payload:
		default:
		}
	})
	unsubscribe()

	require.NoError(t, a.Publish(ctx, []byte(`{"type":"PING"}`), core.PublishOptions{Reliable: true}))

	select {
	case <-seen:
		t.Fatal("handler ran after unsubscribe")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEngine_MicrophoneDetachesTrack(t *testing.T) {
	e, err := NewEngine(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	ctx := context.Background()

	require.ErrorIs(t, e.SetMicrophoneEnabled(ctx, false), ErrNoTrack)

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "mic")
	require.NoError(t, err)
	require.NoError(t, e.AddAudioTrack(track))

	require.NoError(t, e.SetMicrophoneEnabled(ctx, false))
	assert.Nil(t, e.audioSender.Track(), "muting must detach the audio track")

	require.NoError(t, e.SetMicrophoneEnabled(ctx, true))
	assert.Equal(t, webrtc.TrackLocal(track), e.audioSender.Track())
}

func TestEngine_CameraDetachesTrack(t *testing.T) {
	e, err := NewEngine(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	ctx := context.Background()

	require.ErrorIs(t, e.SetCameraEnabled(ctx, false), ErrNoTrack)

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "cam")
	require.NoError(t, err)
	require.NoError(t, e.AddVideoTrack(track))

	require.NoError(t, e.SetCameraEnabled(ctx, false))
	assert.Nil(t, e.videoSender.Track())
}

func TestEngine_ContextCancelClosesConnection(t *testing.T) {
	e, err := NewEngine(webrtc.Configuration{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Start(ctx))
	cancel()

	require.Eventually(t, func() bool {
		return e.pc.ConnectionState() == webrtc.PeerConnectionStateClosed
	}, 5*time.Second, 20*time.Millisecond, "cancel must close the peer connection")
}
