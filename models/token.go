package models

import "time"

// BlacklistedToken is a JWT revoked by logout before its natural expiry.
type BlacklistedToken struct {
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
