package session

import "time"

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// DefaultNoticeDuration is how long a notice stays visible unless
// replaced earlier.
const DefaultNoticeDuration = 4 * time.Second

// Notice is transient user-facing feedback. At most one is visible
// per session; an expired notice is never shown.
type Notice struct {
	Kind      NoticeKind
	Text      string
	ExpiresAt time.Time
}
