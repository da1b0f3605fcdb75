package models

// Session is the authenticated caller a booking flow acts on behalf of.
// It is handed to the flow at construction instead of being looked up ambiently.
type Session struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId,omitempty"`
	Role     string `json:"role,omitempty"`
	Token    string `json:"-"`
}

// Valid reports whether the session identifies a caller.
func (s Session) Valid() bool {
	return s.UserID != ""
}
