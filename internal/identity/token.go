package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken signs a bearer token for the given principal. Used by the seed
// tooling to print demo tokens and by tests; production tokens come from
// the external auth service with the same claim layout.
func IssueToken(secret string, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": p.UserID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),

		"name":        p.Author.Name,
		"photo_url":   p.Author.PhotoURL,
		"batch":       p.Author.Batch,
		"designation": p.Author.Designation,
		"company":     p.Author.Company,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
