package model

import "time"

type SessionResponse struct {
	SessionID         string    `json:"session_id"`
	Open              bool      `json:"open"`
	Pending           bool      `json:"pending"`
	AutoStartConsumed bool      `json:"auto_start_consumed"`
	Turns             []Turn    `json:"turns"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Open      bool      `json:"open"`
	Pending   bool      `json:"pending"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubmitResponse struct {
	Outcome string          `json:"outcome"`
	Session SessionResponse `json:"session"`
}

// Notification mirrors the transient toast the client shows on failure.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AskResponse struct {
	Text string `json:"text"`
}
