package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
)

func (ctl *ClassWSController) handleJoin(
	sid core.SessionID,
	conn *wsConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
		Role string `json:"role,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	raw := p.Room
	if raw == "" {
		raw = "main"
	}
	if len(raw) > domain.MaxRoomNameLen {
		raw = raw[:domain.MaxRoomNameLen]
	}
	roomName := domain.RoomName(raw)

	role, err := domain.ParseRole(p.Role)
	if err != nil {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "unknown_role",
		})
		return
	}
	ctl.Orch.Registry.UpdateRole(sid, role)

	if p.Name != "" {
		if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
			ctl.sendJSON(conn, map[string]any{
				"type":  "error",
				"error": "invalid_name",
			})
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename on join")
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(roomName)).Msg("join")
	ctl.Orch.Join(sid, roomName)

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	room := ctl.Orch.Rooms.GetOrCreate(roomName)

	// Snapshot lets the client render the class immediately; "you"
	// tells it the identity teacher grants will be addressed to.
	resp := struct {
		Type     string           `json:"type"`
		Room     domain.RoomName  `json:"room"`
		You      domain.User      `json:"you"`
		Members  []core.MemberDTO `json:"members"`
		Count    int              `json:"count"`
		NoticeMs int64            `json:"noticeMs,omitempty"`
	}{
		Type:     "room_state",
		Room:     room.Room().Name,
		You:      *user,
		Members:  room.MembersSnapshot(),
		Count:    room.MemberCount(),
		NoticeMs: ctl.NoticeDur.Milliseconds(),
	}
	ctl.sendJSON(conn, resp)

	broadcastResp := struct {
		Type string      `json:"type"`
		User domain.User `json:"user"`
	}{
		Type: "member_joined",
		User: *user,
	}
	ctl.BroadcastFrom(sid, broadcastResp)
}

// handleLeave removes the member from its room; the connection stays up.
func (ctl *ClassWSController) handleLeave(
	sid core.SessionID,
	conn *wsConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	roomName, _, ok := ctl.Orch.Registry.RoomOf(sid)

	ctl.Orch.KickBySID(sid)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})

	if ok {
		user := ctl.Orch.Registry.GetOrCreateUser(sid)

		broadcastResp := struct {
			Type string      `json:"type"`
			User domain.User `json:"user"`
		}{
			Type: "member_left",
			User: *user,
		}
		ctl.BroadcastRoom(roomName, broadcastResp)
	}
}

func (ctl *ClassWSController) handleRename(
	sid core.SessionID,
	conn *wsConn,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "invalid_name",
		})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")

	ctl.handleWhoAmI(sid, conn)
	user := ctl.Orch.Registry.GetOrCreateUser(sid)

	broadcastResp := struct {
		Type string      `json:"type"`
		User domain.User `json:"user"`
	}{
		Type: "member_updated",
		User: *user,
	}
	ctl.BroadcastFrom(sid, broadcastResp)
}

func (ctl *ClassWSController) handleWhoAmI(
	sid core.SessionID,
	conn *wsConn,
) {
	user := ctl.Orch.Registry.GetOrCreateUser(sid)

	resp := struct {
		Type     string          `json:"type"`
		ID       domain.UserID   `json:"id"`
		Username string          `json:"username"`
		Role     domain.Role     `json:"role"`
		Room     domain.RoomName `json:"room,omitempty"`
	}{
		Type:     "whoami",
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if roomName, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = roomName
	}
	ctl.sendJSON(conn, resp)
}
