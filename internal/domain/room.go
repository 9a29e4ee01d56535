package domain

type (
	RoomName string
	RoomID   string
)

const MaxRoomNameLen = 64

// Room is a live class container. Members live in core, not here.
type Room struct {
	ID   RoomID
	Name RoomName
}
