package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
)

// handleData unwraps a client's data-channel payload and hands it to
// the orchestrator, which moderates and fans it out. Room mates
// receive the payload bare, exactly as the sender published it.
func (ctl *ClassWSController) handleData(sid core.SessionID, c *wsConn, data []byte) {
	type dataPayload struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	var p dataPayload
	if err := json.Unmarshal(data, &p); err != nil || len(p.Payload) == 0 {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad data payload")
		ctl.sendJSON(c, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	ctl.Orch.OnClassData(sid, core.Frame(p.Payload))
}
