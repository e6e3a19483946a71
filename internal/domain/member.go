package domain

// Member represents a connection's participation in a room.
// No transport or lifecycle logic here.
type Member struct {
	Conn Connection
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn Connection) *Member {
	return &Member{Conn: conn}
}
