package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Pair of tokens issued by TokenManager and returned to the user
// on login and on every refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
