package models

import "time"

// Notification is a message delivered to a user's inbox.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ActionURL string     `json:"action_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NotificationList is the inbox listing with unread bookkeeping.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

// Session is a backend-tracked device session.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DeviceType   string    `json:"device_type"`
	DeviceName   string    `json:"device_name,omitempty"`
	DeviceID     string    `json:"device_id,omitempty"`
	OS           string    `json:"os,omitempty"`
	Browser      string    `json:"browser,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsCurrent    bool      `json:"is_current"`
}

// SessionList is the device-session listing.
type SessionList struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}

// UserStatusStats breaks the user population down by account status.
type UserStatusStats struct {
	Active              int `json:"active"`
	Inactive            int `json:"inactive"`
	Suspended           int `json:"suspended"`
	Locked              int `json:"locked"`
	PendingVerification int `json:"pending_verification"`
}

// DailyRegistrations counts signups for one day.
type DailyRegistrations struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalUsers         int                  `json:"total_users"`
	ActiveSessions     int                  `json:"active_sessions"`
	StatusBreakdown    UserStatusStats      `json:"status_breakdown"`
	DailyRegistrations []DailyRegistrations `json:"daily_registrations"`
	RecentUsers        []User               `json:"recent_users"`
}
