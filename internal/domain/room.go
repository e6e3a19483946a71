package domain

// RoomName is the chat session id; one relay room per session.
type RoomName string

type Room struct {
	Name RoomName
}
