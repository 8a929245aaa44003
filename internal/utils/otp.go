package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

const (
	otpMin   = 100000
	otpRange = 900000
)

// GenerateOTP returns a 6-digit numeric code drawn uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
