package models

import "time"

type RequestLog struct {
	ID         int64     `json:"id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	UserID     *int      `json:"user_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

type RequestLogFilter struct {
	UserID    int
	Path      string
	MinStatus int
	Limit     int
	Offset    int
}
