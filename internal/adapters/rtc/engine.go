// Package rtc adapts a pion PeerConnection to the engine interfaces
// the session controller consumes: a data channel for class messages
// and enable/disable control over the local capture tracks.
package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
)

var ErrNoTrack = errors.New("no local track attached")

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Engine owns one peer connection with two pre-negotiated data
// channels (reliable and lossy) plus the local audio/video senders.
type Engine struct {
	pc       *webrtc.PeerConnection
	reliable *webrtc.DataChannel
	lossy    *webrtc.DataChannel

	mu      sync.RWMutex
	subs    map[uint64]func([]byte)
	nextSub uint64

	audioTrack  webrtc.TrackLocal
	audioSender *webrtc.RTPSender
	videoTrack  webrtc.TrackLocal
	videoSender *webrtc.RTPSender

	onICE    func(webrtc.ICECandidateInit)
	onClosed func()

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewEngine(cfg webrtc.Configuration) (*Engine, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{pc: pc, subs: make(map[uint64]func([]byte))}

	// Both channels are negotiated with fixed IDs so that two engines
	// end up sharing the same channel pair instead of announcing
	// duplicates to each other.
	negotiated := true
	ordered := true
	reliableID := uint16(0)
	e.reliable, err = pc.CreateDataChannel("class", &webrtc.DataChannelInit{
		Ordered:    &ordered,
		Negotiated: &negotiated,
		ID:         &reliableID,
	})
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	var maxRetransmits uint16
	lossyID := uint16(1)
	e.lossy, err = pc.CreateDataChannel("class-lossy", &webrtc.DataChannelInit{
		MaxRetransmits: &maxRetransmits,
		Negotiated:     &negotiated,
		ID:             &lossyID,
	})
	if err != nil {
		_ = pc.Close()
		return nil, err
	}

	onMessage := func(msg webrtc.DataChannelMessage) { e.dispatch(msg.Data) }
	e.reliable.OnMessage(onMessage)
	e.lossy.OnMessage(onMessage)
	return e, nil
}

func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	// The same context tears the peer connection down whether the
	// caller cancels or ICE gives up.
	go func() {
		<-ctx.Done()
		e.closePeer()
	}()

	e.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateDisconnected ||
			s == webrtc.ICEConnectionStateFailed ||
			s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	e.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			if e.onClosed != nil {
				e.onClosed()
			}
		}
	})

	e.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && e.onICE != nil {
			e.onICE(cand.ToJSON())
		}
	})

	return nil
}

// Publish implements core.DataChannel. Reliable payloads go over the
// ordered channel; lossy ones may be dropped by SCTP after one send.
func (e *Engine) Publish(_ context.Context, payload []byte, opts core.PublishOptions) error {
	dc := e.lossy
	if opts.Reliable {
		dc = e.reliable
	}
	return dc.Send(payload)
}

// Subscribe implements core.DataChannel.
func (e *Engine) Subscribe(handler func(payload []byte)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = handler
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) dispatch(data []byte) {
	e.mu.RLock()
	handlers := make([]func([]byte), 0, len(e.subs))
	for _, h := range e.subs {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(data)
	}
}

// AddAudioTrack attaches the local microphone track. The engine keeps
// the sender so the track can be detached and re-attached on mute.
func (e *Engine) AddAudioTrack(track webrtc.TrackLocal) error {
	sender, err := e.pc.AddTrack(track)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.audioTrack = track
	e.audioSender = sender
	e.mu.Unlock()
	return nil
}

// AddVideoTrack attaches the local camera track.
func (e *Engine) AddVideoTrack(track webrtc.TrackLocal) error {
	sender, err := e.pc.AddTrack(track)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.videoTrack = track
	e.videoSender = sender
	e.mu.Unlock()
	return nil
}

// SetMicrophoneEnabled implements core.MediaControl: disabling swaps
// the sender's track out so no audio leaves the machine.
func (e *Engine) SetMicrophoneEnabled(_ context.Context, enabled bool) error {
	e.mu.RLock()
	sender, track := e.audioSender, e.audioTrack
	e.mu.RUnlock()
	if sender == nil {
		return ErrNoTrack
	}
	if enabled {
		return sender.ReplaceTrack(track)
	}
	return sender.ReplaceTrack(nil)
}

// SetCameraEnabled implements core.MediaControl.
func (e *Engine) SetCameraEnabled(_ context.Context, enabled bool) error {
	e.mu.RLock()
	sender, track := e.videoSender, e.videoTrack
	e.mu.RUnlock()
	if sender == nil {
		return ErrNoTrack
	}
	if enabled {
		return sender.ReplaceTrack(track)
	}
	return sender.ReplaceTrack(nil)
}

// CreateOfferAndSet produces the local SDP with ICE gathering done.
func (e *Engine) CreateOfferAndSet() (*webrtc.SessionDescription, error) {
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(e.pc)
	if err := e.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete
	return e.pc.LocalDescription(), nil
}

func (e *Engine) ApplyAnswer(answer webrtc.SessionDescription) error {
	return e.pc.SetRemoteDescription(answer)
}

// AcceptOffer is the answer side of the exchange: apply the remote
// offer and return the local answer with ICE gathering done.
func (e *Engine) AcceptOffer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := e.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(e.pc)
	if err := e.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gatherComplete
	return e.pc.LocalDescription(), nil
}

func (e *Engine) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return e.pc.AddICECandidate(ci)
}

func (e *Engine) OnICECandidate(fn func(webrtc.ICECandidateInit)) { e.onICE = fn }

// OnClosed sets an application-level callback for cleanup.
func (e *Engine) OnClosed(fn func()) { e.onClosed = fn }

func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.closePeer()
}

func (e *Engine) closePeer() {
	e.closeOnce.Do(func() {
		if err := e.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Msg("closed")
		}
	})
}
