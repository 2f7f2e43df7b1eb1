package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kbine/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	otpKeyPrefix          = "otp:"
	otpRateKeyPrefix      = "otp_rate:"
)

// OTPExpiry is how long a one-time code stays valid after issuance.
const OTPExpiry = 5 * time.Minute

// TokenStoreInterface defines the interface for token and OTP storage.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID, phone, role string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID, phone, role string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	StoreOTP(ctx context.Context, phone, codeHash string) error
	GetOTP(ctx context.Context, phone string) (codeHash string, err error)
	DeleteOTP(ctx context.Context, phone string) error
	// ReserveOTPSlot rate-limits OTP issuance; false means a code was
	// issued to this phone too recently.
	ReserveOTPSlot(ctx context.Context, phone string, window time.Duration) (bool, error)
}

// TokenStore handles storage and retrieval of tokens and OTP codes in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID, phone, role string, ttl time.Duration) error {
	data := map[string]string{
		"user_id": userID,
		"phone":   phone,
		"role":    role,
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Set(ctx, key, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID, phone, role string, err error) {
	key := refreshTokenKeyPrefix + tokenID
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return "", "", "", fmt.Errorf("refresh token not found")
	}

	var tokenData map[string]string
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return "", "", "", fmt.Errorf("unmarshal token data: %w", err)
	}

	return tokenData["user_id"], tokenData["phone"], tokenData["role"], nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Delete(ctx, key)
}

// StoreOTP stores the bcrypt hash of a one-time code for a phone number.
func (s *TokenStore) StoreOTP(ctx context.Context, phone, codeHash string) error {
	key := otpKeyPrefix + phone
	return s.cache.Set(ctx, key, []byte(codeHash), OTPExpiry)
}

// GetOTP retrieves the stored code hash for a phone number.
func (s *TokenStore) GetOTP(ctx context.Context, phone string) (string, error) {
	key := otpKeyPrefix + phone
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return "", fmt.Errorf("otp not found or expired")
	}
	return string(data), nil
}

// DeleteOTP removes a consumed or invalidated code.
func (s *TokenStore) DeleteOTP(ctx context.Context, phone string) error {
	key := otpKeyPrefix + phone
	return s.cache.Delete(ctx, key)
}

// ReserveOTPSlot reserves the issuance slot for a phone number.
func (s *TokenStore) ReserveOTPSlot(ctx context.Context, phone string, window time.Duration) (bool, error) {
	key := otpRateKeyPrefix + phone
	return s.cache.SetNX(ctx, key, []byte("1"), window)
}
