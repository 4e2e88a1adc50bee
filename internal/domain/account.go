package domain

import "time"

// Account is a monitored social-media presence (facebook, twitter,
// instagram, google) whose reviews we collect and analyze.
type Account struct {
	ID         int64
	Platform   string
	Name       string
	PlatformID *string
	CreatedAt  time.Time
}
