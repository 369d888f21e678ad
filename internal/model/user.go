package model

import "time"

// Identity is the normalized view of whoever triggered an inbound event.
// The transport layer builds it from raw telegram updates; nothing below
// the transport ever inspects update shapes directly.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

type User struct {
	ID                int64
	TelegramID        int64
	Username          string
	FirstName         string
	LastName          string
	ReferredByUserID  *int64
	ReferralProcessed bool
	IsAdmin           bool
	CreatedAt         time.Time
}

// DisplayName picks the best available label for leaderboards and cards.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return "User"
	}
	return name
}
