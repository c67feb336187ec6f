package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered-claims payload of an issued token. Optional fields left at
// their zero value are omitted from the serialized token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
	Audience  []string
	NotBefore time.Time
	ID        string
}

// NewClaims sets IssuedAt to now and ExpiresAt to now+lifetime, both at second precision.
func NewClaims(subject string, lifetime time.Duration) *Claims {
	now := time.Now().Truncate(time.Second)
	return &Claims{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}
}

func (c *Claims) WithIssuer(issuer string) *Claims {
	c.Issuer = issuer
	return c
}

// WithAudience appends to the audience list.
func (c *Claims) WithAudience(audience ...string) *Claims {
	c.Audience = append(c.Audience, audience...)
	return c
}

func (c *Claims) WithNotBefore(t time.Time) *Claims {
	c.NotBefore = t
	return c
}

func (c *Claims) WithID(id string) *Claims {
	c.ID = id
	return c
}

// Lifetime returns ExpiresAt - IssuedAt.
func (c *Claims) Lifetime() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

func (c *Claims) registered() jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Subject:   c.Subject,
		Issuer:    c.Issuer,
		ID:        c.ID,
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
	}
	if !c.IssuedAt.IsZero() {
		rc.IssuedAt = jwt.NewNumericDate(c.IssuedAt)
	}
	if len(c.Audience) > 0 {
		rc.Audience = append(jwt.ClaimStrings(nil), c.Audience...)
	}
	if !c.NotBefore.IsZero() {
		rc.NotBefore = jwt.NewNumericDate(c.NotBefore)
	}
	return rc
}

func claimsFromRegistered(rc *jwt.RegisteredClaims) *Claims {
	c := &Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
		ID:      rc.ID,
	}
	if len(rc.Audience) > 0 {
		c.Audience = append([]string(nil), rc.Audience...)
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	if rc.NotBefore != nil {
		c.NotBefore = rc.NotBefore.Time
	}
	return c
}
