package models

// Member identifies a user within a group.
type Member struct {
	// UserID is opaque and unique within the group.
	UserID string

	// DisplayName is shown next to balances.
	DisplayName string

	// JoinedAt is the Unix timestamp when the user joined the group.
	JoinedAt int64
}
