package models

import "time"

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	// APIEndpoint is the connection reference of the authenticated remote session.
	// It embeds the access token and never leaves the process through the HTTP API.
	APIEndpoint string `json:"-"`
}

// SessionDescriptor is the minimal state persisted between runs.
type SessionDescriptor struct {
	User        User      `json:"user"`
	APIEndpoint string    `json:"apiEndpoint"`
	SavedAt     time.Time `json:"savedAt"`
}

// UsernameFromIdentifier accepts an email or a bare username and returns the
// username part.
func UsernameFromIdentifier(identifier string) string {
	for i := 0; i < len(identifier); i++ {
		if identifier[i] == '@' {
			return identifier[:i]
		}
	}
	return identifier
}
