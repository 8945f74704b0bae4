package models

import "time"

// User is a registered tracker account whose wrapped is refreshed periodically
type User struct {
	ID          string   `json:"id" boltholdKey:"ID"` // UUID
	Provider    Provider `json:"provider" boltholdIndex:"Provider"`
	Username    string   `json:"username"`
	UsernameKey string   `json:"-" boltholdIndex:"UsernameKey"` // case-folded, for lookups

	CreatedAt       time.Time  `json:"created_at"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}
