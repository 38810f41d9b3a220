package messages

// ListRoomsRequest asks the server for the current room summary list.
// The server also pushes RoomList unsolicited on any room-set change.
type ListRoomsRequest struct{}

// RoomSummary is one entry of the room browser list.
type RoomSummary struct {
	ID          string
	Name        string
	PlayerCount int
	MaxPlayers  int // 0 = unbounded
}

// RoomList carries the available rooms, lobby first.
type RoomList struct {
	Rooms []RoomSummary
}

// CreateRoomRequest asks the server to create a custom room. Creation
// always succeeds; the caller still has to join the new room.
type CreateRoomRequest struct {
	Name       string
	MaxPlayers int // 0 = unbounded
}

// RoomCreated announces a newly created room.
type RoomCreated struct {
	RoomID     string
	Name       string
	MaxPlayers int
}

// JoinRequest asks to join a room. Joining a new room implicitly leaves
// the previous one.
type JoinRequest struct {
	RoomID string
	Name   string
}

// JoinResponse is the only explicit result in the protocol besides room
// creation; every other event is fire-and-forget.
type JoinResponse struct {
	Success  bool
	Message  string
	RoomID   string
	RoomName string
}
