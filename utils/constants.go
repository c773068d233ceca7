package utils

import "time"

// Redis key prefixes.
const (
	OTPPrefix         = "otp:"
	OTPAttemptsPrefix = "otpAttempts:"
	AuthSessionPrefix = "authSession:"
)

const (
	OTPTTL         = 5 * time.Minute
	AuthSessionTTL = 10 * time.Minute
	// MaxOTPAttempts is how many codes may be tried against one issued OTP.
	MaxOTPAttempts = 5
)
