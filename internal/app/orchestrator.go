package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
	"github.com/campuslive/classroom/internal/protocol"
)

// Orchestrator coordinates membership and class-data relay across
// registry, rooms and policy. It owns no transport resources.
type Orchestrator struct {
	Registry *Registry
	Rooms    core.RoomManager
	Policy   Policy
	Raises   *HandRaiseLimiter
}

func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName) {
	prev, _, ok := o.Registry.RoomOf(sid)
	if ok {
		o.KickBySID(sid)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("from_room", string(prev)).Msg("kicked from room")
	}
	if session, ok := o.Registry.GetSession(sid); ok {
		room := o.Rooms.GetOrCreate(roomName)
		room.AddMember(sid, session)
		o.Registry.UpdateRoom(sid, roomName)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("added to room")
	}
}

// OnClassData relays one data-channel payload from sid to the rest of
// its room, enforcing the class rules the clients cannot:
//
//   - SPEAK_PERMISSION is forwarded only when the sender is a teacher;
//     a student cannot forge a grant through the relay.
//   - HAND_RAISED must carry the sender's own identity and is rate
//     limited per student.
//   - Payload types owned by other collaborators pass through as-is.
func (o *Orchestrator) OnClassData(sid core.SessionID, data core.Frame) {
	roomName, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room := o.Rooms.GetOrCreate(roomName)
	sender := sess.Meta().User

	msg, err := protocol.Decode(data)
	switch {
	case errors.Is(err, protocol.ErrUnknownType):
		// Shared channel: foreign traffic flows through untouched.
	case err != nil:
		log.Debug().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Msg("dropping malformed class data")
		return
	default:
		if !o.applyClassMessage(room, sid, sender, msg) {
			return
		}
	}

	res := room.Broadcast(sid, data)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case KickMember:
			for _, snap := range o.Registry.MembersOfRoom(roomName) {
				if snap.Session == slow {
					o.KickBySID(snap.SID)
				}
			}
		case MarkSlow, DropFrame, NoAction:
		}
	}
}

// applyClassMessage updates room meta for known messages and reports
// whether the payload may be relayed.
func (o *Orchestrator) applyClassMessage(room core.RoomService, sid core.SessionID, sender *domain.User, msg protocol.Message) bool {
	switch m := msg.(type) {
	case protocol.SpeakPermission:
		if !sender.IsTeacher() {
			log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Str("student", m.StudentID).Msg("speak grant from non-teacher dropped")
			return false
		}
		room.SetCanSpeak(domain.UserID(m.StudentID), m.Allowed)
		log.Info().Str("module", "app.orch").Str("room", string(room.Room().Name)).Str("student", m.StudentID).Bool("allowed", m.Allowed).Msg("speak permission")
		return true
	case protocol.HandRaised:
		if m.StudentID != string(sender.ID) {
			log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Str("claimed", m.StudentID).Msg("hand raise with foreign identity dropped")
			return false
		}
		if o.Raises != nil && !o.Raises.Allow(sender.ID) {
			log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Msg("hand raise rate limited")
			return false
		}
		room.SetHandRaised(sid, m.Raised)
		return true
	default:
		return true
	}
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	roomName, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room := o.Rooms.GetOrCreate(roomName)
	room.RemoveMember(sid)
	o.Registry.RemoveRoom(sid)
	if o.Raises != nil {
		o.Raises.Forget(sess.Meta().User.ID)
	}
}

func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.KickBySID(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) EvictRoom(name domain.RoomName) {
	for _, snap := range o.Registry.MembersOfRoom(name) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(name)
}
