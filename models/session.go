package models

// Persisted session keys, named as the mobile client stored them.
const (
	SessionKeyLoggedIn  = "isLoggedIn"
	SessionKeyUserID    = "user_id"
	SessionKeyUserTitle = "userTitle"
)

// RootView is the view the session gate selects for a device.
type RootView string

const (
	RootLoggedOut RootView = "logged_out"
	RootLoggedIn  RootView = "logged_in"
)

// Session is the device-scoped state read at launch.
// UserID is nil when no user is stored.
type Session struct {
	DeviceID   string `json:"deviceId"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	UserID     *int64 `json:"userId,omitempty"`
	UserTitle  string `json:"userTitle,omitempty"`
}

// Root maps the persisted flag to the root view.
func (s Session) Root() RootView {
	if s.IsLoggedIn {
		return RootLoggedIn
	}
	return RootLoggedOut
}

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	UserID    int64  `json:"userId" binding:"required"`
	UserTitle string `json:"userTitle"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string   `json:"token"`
	Root  RootView `json:"root"`
}
