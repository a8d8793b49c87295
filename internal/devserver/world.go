package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"umclient/internal/models"
)

// world is the in-memory dataset the stub serves. It is seeded with a small
// cast of accounts and mutates under a single lock; nothing survives a
// restart.
type world struct {
	mu            sync.Mutex
	users         []seededUser
	notifications map[string][]models.Notification
	sessions      map[string][]models.Session
}

type seededUser struct {
	user     models.User
	password string
}

func newWorld() *world {
	now := time.Now().UTC()
	w := &world{
		notifications: make(map[string][]models.Notification),
		sessions:      make(map[string][]models.Session),
	}

	admin := models.User{
		ID:            uuid.NewString(),
		Email:         "admin@example.com",
		Username:      "admin",
		FirstName:     "Ada",
		LastName:      "Admin",
		Status:        "active",
		EmailVerified: true,
		Roles:         adminRoles(),
		CreatedAt:     now.Add(-90 * 24 * time.Hour),
	}
	alice := models.User{
		ID:            uuid.NewString(),
		Email:         "alice@example.com",
		Username:      "alice",
		FirstName:     "Alice",
		LastName:      "Reyes",
		Locale:        "en-US",
		Timezone:      "America/New_York",
		Status:        "active",
		EmailVerified: true,
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
	}
	bob := models.User{
		ID:        uuid.NewString(),
		Email:     "bob@example.com",
		Username:  "bob",
		FirstName: "Bob",
		Status:    "pending_verification",
		CreatedAt: now.Add(-2 * 24 * time.Hour),
	}

	w.users = []seededUser{
		{user: admin, password: "admin123"},
		{user: alice, password: "alice123"},
		{user: bob, password: "bob123"},
	}

	w.notifications[alice.ID] = []models.Notification{
		{
			ID:        uuid.NewString(),
			UserID:    alice.ID,
			Title:     "Welcome",
			Message:   "Your account is ready.",
			Type:      "system",
			Priority:  "low",
			CreatedAt: now.Add(-29 * 24 * time.Hour),
		},
		{
			ID:        uuid.NewString(),
			UserID:    alice.ID,
			Title:     "New sign-in",
			Message:   "A new device signed in to your account.",
			Type:      "security",
			Priority:  "high",
			CreatedAt: now.Add(-time.Hour),
		},
	}
	return w
}

func adminRoles() []models.Role {
	return []models.Role{{
		ID:          uuid.NewString(),
		Name:        "admin",
		Permissions: []string{"users:read", "users:write", "stats:read"},
	}}
}

func (w *world) authenticate(email, password string) (models.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if strings.EqualFold(w.users[i].user.Email, email) && w.users[i].password == password {
			now := time.Now().UTC()
			w.users[i].user.LastLoginAt = &now
			return w.users[i].user, true
		}
	}
	return models.User{}, false
}

func (w *world) userByID(id string) (models.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if w.users[i].user.ID == id {
			return w.users[i].user, true
		}
	}
	return models.User{}, false
}

func (w *world) patchUser(id string, patch models.UserPatch) (models.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if w.users[i].user.ID == id {
			patch.Apply(&w.users[i].user)
			return w.users[i].user, true
		}
	}
	return models.User{}, false
}

func (w *world) createUser(in models.UserCreate) models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Status:    "pending_verification",
		CreatedAt: time.Now().UTC(),
	}
	w.users = append(w.users, seededUser{user: u, password: in.Password})
	return u
}

func (w *world) deleteUser(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if w.users[i].user.ID == id {
			w.users = append(w.users[:i], w.users[i+1:]...)
			return true
		}
	}
	return false
}

func (w *world) checkPassword(id, password string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if w.users[i].user.ID == id {
			return w.users[i].password == password
		}
	}
	return false
}

func (w *world) setPassword(id, password string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.users {
		if w.users[i].user.ID == id {
			w.users[i].password = password
			return
		}
	}
}

func (w *world) listUsers(page, pageSize int, search, status string) models.UserList {
	w.mu.Lock()
	defer w.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	search = strings.ToLower(search)

	var matched []models.User
	for i := range w.users {
		u := w.users[i].user
		if status != "" && u.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.DisplayName()), search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return models.UserList{
		Users:    matched[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}

func (w *world) listNotifications(userID string, unreadOnly bool) models.NotificationList {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := w.notifications[userID]
	var out []models.Notification
	unread := 0
	for _, n := range all {
		if !n.Read {
			unread++
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return models.NotificationList{
		Notifications: out,
		Total:         len(all),
		UnreadCount:   unread,
	}
}

func (w *world) markNotificationsRead(userID string, ids []string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	now := time.Now().UTC()
	marked := 0
	list := w.notifications[userID]
	for i := range list {
		if list[i].Read {
			continue
		}
		if len(ids) > 0 && !wanted[list[i].ID] {
			continue
		}
		list[i].Read = true
		list[i].ReadAt = &now
		marked++
	}
	w.notifications[userID] = list
	return marked
}

func (w *world) addSession(userID, deviceID, deviceName string, ttl time.Duration) models.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now().UTC()
	s := models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		DeviceType:   "cli",
		DeviceID:     deviceID,
		DeviceName:   deviceName,
		LastActivity: now,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	w.sessions[userID] = append(w.sessions[userID], s)
	return s
}

// listSessions marks the newest session as current; the stub does not tie
// tokens to individual sessions.
func (w *world) listSessions(userID string) models.SessionList {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := w.sessions[userID]
	newest := -1
	for i := range list {
		if newest < 0 || list[i].CreatedAt.After(list[newest].CreatedAt) {
			newest = i
		}
	}

	var out []models.Session
	for i, s := range list {
		s.IsCurrent = i == newest
		out = append(out, s)
	}
	return models.SessionList{Sessions: out, Total: len(out)}
}

func (w *world) revokeSession(userID, sessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.sessions[userID]
	for i := range list {
		if list[i].ID == sessionID {
			w.sessions[userID] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (w *world) revokeAllSessions(userID string, exceptNewest bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := w.sessions[userID]
	if !exceptNewest || len(list) == 0 {
		w.sessions[userID] = nil
		return
	}
	newest := 0
	for i := range list {
		if list[i].CreatedAt.After(list[newest].CreatedAt) {
			newest = i
		}
	}
	w.sessions[userID] = []models.Session{list[newest]}
}

func (w *world) dashboardStats() models.DashboardStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	var stats models.UserStatusStats
	var recent []models.User
	for i := range w.users {
		u := w.users[i].user
		switch u.Status {
		case "active":
			stats.Active++
		case "inactive":
			stats.Inactive++
		case "suspended":
			stats.Suspended++
		case "locked":
			stats.Locked++
		case "pending_verification":
			stats.PendingVerification++
		}
		recent = append(recent, u)
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}

	sessions := 0
	for _, list := range w.sessions {
		sessions += len(list)
	}

	daily := make([]models.DailyRegistrations, 0, 7)
	for d := 6; d >= 0; d-- {
		day := time.Now().UTC().AddDate(0, 0, -d)
		count := 0
		for i := range w.users {
			if w.users[i].user.CreatedAt.Format("2006-01-02") == day.Format("2006-01-02") {
				count++
			}
		}
		daily = append(daily, models.DailyRegistrations{
			Date:  day.Format("2006-01-02"),
			Count: count,
		})
	}

	return models.DashboardStats{
		TotalUsers:         len(w.users),
		ActiveSessions:     sessions,
		StatusBreakdown:    stats,
		DailyRegistrations: daily,
		RecentUsers:        recent,
	}
}
