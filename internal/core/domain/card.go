package domain

import "time"

// CardPresence is the singleton fact describing the card most recently seen
// on the reader. It is overwritten on every insertion and soft-marked on
// removal; it is never cleared, so "last seen" survives a card being pulled.
type CardPresence struct {
	CardUID     string    `json:"card_uid"`
	Connected   bool      `json:"currently_connected"`
	ConnectedAt time.Time `json:"connected"`
}

// Association links a Congressus username to a card UID. The UID is unique
// across all associations; a card can identify at most one user.
type Association struct {
	Username string    `json:"username"`
	CardUID  string    `json:"card_uid"`
	AddedAt  time.Time `json:"added"`
}
