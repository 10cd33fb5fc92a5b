package boulevard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// signaturePrefix is the protocol prefix of the Boulevard admin token payload.
const signaturePrefix = "blvd-admin-v1"

// Signer produces HTTP Basic credentials for the Boulevard admin API.
// A credential is only valid for a short time, so callers must sign every
// request instead of caching the result.
type Signer struct {
	businessID string
	secretKey  []byte
	apiKey     string
	now        func() time.Time
}

// NewSigner creates a Signer. secretKey is the base64 encoded secret issued
// by Boulevard; it is decoded once here.
func NewSigner(businessID, secretKey, apiKey string) (*Signer, error) {
	rawKey, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("decode boulevard secret key: %w", err)
	}

	return &Signer{
		businessID: businessID,
		secretKey:  rawKey,
		apiKey:     apiKey,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the signer that reads the current time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Credential returns the value to place after "Basic " in the Authorization header.
func (s *Signer) Credential() string {
	return s.credentialAt(s.now())
}

func (s *Signer) credentialAt(t time.Time) string {
	payload := signaturePrefix + s.businessID + strconv.FormatInt(t.Unix(), 10)

	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(payload))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	token := signature + payload
	return base64.StdEncoding.EncodeToString([]byte(s.apiKey + ":" + token))
}
