package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/wwtech/onboarding-backend/internal/models"
)

// offerTokenBytes gives 256 bits of entropy
const offerTokenBytes = 32

// DefaultOfferTokenTTL is how long an emailed offer link stays valid
const DefaultOfferTokenTTL = 7 * 24 * time.Hour

// OfferToken is a freshly minted token. Raw only ever leaves the process in the offer email.
type OfferToken struct {
	Raw    string
	Hash   string
	Expiry time.Time
}

// OfferTokenService mints and verifies single-use offer tokens
type OfferTokenService struct {
	ttl    time.Duration
	random io.Reader
	now    func() time.Time
}

// NewOfferTokenService creates a new offer token service
func NewOfferTokenService(ttl time.Duration) *OfferTokenService {
	if ttl <= 0 {
		ttl = DefaultOfferTokenTTL
	}
	return &OfferTokenService{
		ttl:    ttl,
		random: rand.Reader,
		now:    time.Now,
	}
}

// TTL returns the validity window of new tokens
func (s *OfferTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue generates a random token and its expiry
func (s *OfferTokenService) Issue() (*OfferToken, error) {
	buf := make([]byte, offerTokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return nil, fmt.Errorf("failed to generate offer token: %w", err)
	}
	raw := hex.EncodeToString(buf)
	return &OfferToken{
		Raw:    raw,
		Hash:   HashOfferToken(raw),
		Expiry: s.now().Add(s.ttl),
	}, nil
}

// Verify reports whether raw matches the candidate's stored token and the
// token has not expired. Unknown and expired tokens are indistinguishable.
func (s *OfferTokenService) Verify(c *models.Candidate, raw string) bool {
	if c == nil || raw == "" || !c.OfferTokenHash.Valid || !c.OfferTokenExpiry.Valid {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(HashOfferToken(raw)), []byte(c.OfferTokenHash.String)) != 1 {
		return false
	}
	return s.now().Before(c.OfferTokenExpiry.Time)
}

// HashOfferToken returns the stored form of a raw token
func HashOfferToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
