package protocol

// JoinPayload announces a new participant to the rest of the room.
type JoinPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeavePayload announces a departed participant.
type LeavePayload struct {
	UserID string `json:"userId"`
}

// UserInfo is one entry of a users_list payload.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
