package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// payload fields are joined with a NUL byte, which cannot appear in job ids
// or relative paths produced by this service.
const payloadSep = "\x00"

// SignedURLSigner mints and checks expiring download tokens. Tokens carry
// the job id and the stored file's relative path, so the download endpoint
// needs no extra lookup to locate the file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer. A non-positive ttl falls back to
// 24 hours.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a token of the form base64(payload).base64(mac) along
// with its expiry.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expiresAt := time.Now().Add(s.ttl)
	payload := strings.Join([]string{jobID, relPath, strconv.FormatInt(expiresAt.Unix(), 10)}, payloadSep)

	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	mac := base64.RawURLEncoding.EncodeToString(s.sign(payload))
	return encoded + "." + mac, expiresAt, nil
}

// Parse checks the token's MAC and expiry and returns the embedded
// metadata. allowExpired skips the expiry check; cleanup uses it to resolve
// files for tokens past their window.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	encoded, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	givenMAC, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode signature: %w", err)
	}
	if !hmac.Equal(s.sign(string(raw)), givenMAC) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	fields := strings.Split(string(raw), payloadSep)
	if len(fields) != 3 {
		return "", "", time.Time{}, fmt.Errorf("invalid token payload")
	}
	expUnix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid token timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return fields[0], fields[1], expiresAt, nil
}

func (s *SignedURLSigner) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}
