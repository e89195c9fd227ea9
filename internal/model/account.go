package model

import "time"

// Account is a login credential record. Characters hang off accounts;
// the simulation itself only ever sees players.
type Account struct {
	Login        string
	PasswordHash string
	Banned       bool
	LastIP       string
	LastActive   time.Time
	CreatedAt    time.Time
}
