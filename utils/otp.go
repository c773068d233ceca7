package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrOTPNotFound = errors.New("OTP not found or expired")
	ErrOTPMismatch = errors.New("OTP does not match")
	// ErrOTPAttemptsExceeded means the OTP was burned after too many wrong codes.
	ErrOTPAttemptsExceeded = errors.New("too many OTP attempts")
)

// MessageSender delivers a short text message to a phone number.
type MessageSender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

// LogSender writes outgoing messages to the log instead of a carrier.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, phoneNumber, message string) error {
	s.Logger.Info("Sending WhatsApp message", zap.String("phone", phoneNumber), zap.String("message", message))
	return nil
}

// OTPClient is the subset of *redis.Client the OTP store uses.
type OTPClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisOTPStore keeps one-time passwords in Redis with a TTL.
type RedisOTPStore struct {
	client      OTPClient
	sender      MessageSender
	logger      *zap.Logger
	ttl         time.Duration
	maxAttempts int64
}

func NewRedisOTPStore(client OTPClient, sender MessageSender, logger *zap.Logger) *RedisOTPStore {
	return &RedisOTPStore{client: client, sender: sender, logger: logger, ttl: OTPTTL, maxAttempts: MaxOTPAttempts}
}

// generateSecureOTP generates a secure random OTP of the specified length.
// It returns a base32 encoded string (without padding) truncated to the desired length.
func generateSecureOTP(length int) (string, error) {
	numBytes := (length*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	otp := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(otp) > length {
		otp = otp[:length]
	}
	return otp, nil
}

// Issue generates an OTP for key, caches it and sends it to phoneNumber.
func (s *RedisOTPStore) Issue(ctx context.Context, key, phoneNumber string) error {
	otp, err := generateSecureOTP(6)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	if err := s.client.Set(ctx, OTPPrefix+key, HashToken(otp), s.ttl).Err(); err != nil {
		s.logger.Error("Failed to cache OTP", zap.Error(err))
		return fmt.Errorf("failed to initiate OTP")
	}
	// A reissued code starts with a fresh attempt budget.
	if err := s.client.Del(ctx, OTPAttemptsPrefix+key).Err(); err != nil {
		s.logger.Warn("Failed to reset OTP attempts", zap.String("key", key), zap.Error(err))
	}

	message := fmt.Sprintf("Your GiftKit verification code is: %s. It expires in %d minutes.", otp, int(s.ttl.Minutes()))
	if err := s.sender.Send(ctx, phoneNumber, message); err != nil {
		s.logger.Error("Failed to send OTP", zap.Error(err))
		return fmt.Errorf("failed to send OTP")
	}

	s.logger.Debug("Issued OTP", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

// Verify compares the provided OTP with the cached hash and consumes it on a match.
// Every call counts as an attempt; once the budget is spent the OTP is discarded.
func (s *RedisOTPStore) Verify(ctx context.Context, key, providedOTP string) error {
	otpKey, attemptsKey := OTPPrefix+key, OTPAttemptsPrefix+key

	storedHash, err := s.client.Get(ctx, otpKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}

	attempts, err := s.client.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to count OTP attempt: %w", err)
	}
	if attempts == 1 {
		if err := s.client.Expire(ctx, attemptsKey, s.ttl).Err(); err != nil {
			s.logger.Warn("Failed to expire OTP attempts", zap.String("key", key), zap.Error(err))
		}
	}
	if attempts > s.maxAttempts {
		s.discard(ctx, otpKey, attemptsKey)
		s.logger.Warn("OTP attempts exhausted", zap.String("key", key), zap.Int64("attempts", attempts))
		return ErrOTPAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashToken(providedOTP))) != 1 {
		return ErrOTPMismatch
	}

	s.discard(ctx, otpKey, attemptsKey)
	return nil
}

func (s *RedisOTPStore) discard(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error("Failed to delete OTP", zap.Error(err))
	}
}
