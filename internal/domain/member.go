package domain

// Member represents user's participation meta for a room:
// hand-raise and speak-permission flags as last seen by the server.
// No transport or lifecycle logic here.
type Member struct {
	User       *User
	HandRaised bool
	CanSpeak   bool
	Muted      bool
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
// Teachers can always speak; students start muted until granted.
func NewMember(user *User) *Member {
	m := &Member{User: user, Muted: true}
	if user.IsTeacher() {
		m.CanSpeak = true
	}
	return m
}
