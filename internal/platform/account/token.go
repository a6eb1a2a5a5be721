package account

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// Both token classes, email confirmation codes and password reset tokens,
// share the same mechanics: an opaque value plus its issuance timestamp.
// A slot with a nil value holds no token. Consumption is a conditional
// storage update performed by the coordinator, so a token can be used at
// most once even under concurrent requests.

// IssueToken returns a token value and issuance time for a slot currently
// holding the given value and timestamp. With overwrite disabled, an
// already-issued token is returned unchanged, so repeated requests are
// idempotent and do not reset the validity window.
func IssueToken(current *string, issuedAt *time.Time, overwrite bool) (string, time.Time) {
	if !overwrite && current != nil && issuedAt != nil {
		return *current, *issuedAt
	}
	return uuid.NewString(), time.Now()
}

// TokenValid reports whether candidate matches the issued token and the
// validity window is still open. The window is exclusive: a check at
// exactly issuedAt+ttl is expired.
func TokenValid(current *string, issuedAt *time.Time, candidate string, now time.Time, ttl time.Duration) bool {
	if current == nil || issuedAt == nil || candidate == "" {
		return false
	}

	match := subtle.ConstantTimeCompare([]byte(*current), []byte(candidate)) == 1

	return match && now.Before(issuedAt.Add(ttl))
}
