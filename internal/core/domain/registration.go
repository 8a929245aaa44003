package domain

import "time"

// PendingRegistration is the not-yet-committed signup carried inside a signed
// pending token. It is never persisted. OTP is only set when issuing; the token
// itself carries a keyed digest of it.
type PendingRegistration struct {
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	OTP          string
	CreatedAt    time.Time
}

// PendingTicket is a decoded, signature-checked pending token.
type PendingTicket struct {
	ID           string // jti, used as the single-use consumption key
	ExpiresAt    time.Time
	OTPDigest    string
	Registration PendingRegistration
}
