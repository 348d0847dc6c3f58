package domain

import "time"

// User is a subscriber identified by their LINE user id.
// Created on the first follow event, deleted on unfollow; no update path.
type User struct {
	LineUserID string    `json:"line_user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report is a free-text hazard report submitted by a user through the
// conversational report flow.
type Report struct {
	ID         int64     `json:"id"`
	LineUserID string    `json:"line_user_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
