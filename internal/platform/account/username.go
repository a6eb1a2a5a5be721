package account

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	usernameMaxLen = 31

	// Leave room for a "_12345" collision suffix within usernameMaxLen.
	usernameBaseMaxLen = 25

	usernameMaxAttempts = 5
)

// deriveUsername builds a username candidate from the local part of an
// email address, keeping letters, digits, dots and underscores only.
func deriveUsername(address string) string {
	local := address
	if at := strings.Index(address, "@"); at >= 0 {
		local = address[:at]
	}

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}

	username := strings.Trim(b.String(), ".")
	if username == "" {
		username = "user"
	}
	if len(username) > usernameBaseMaxLen {
		username = username[:usernameBaseMaxLen]
	}

	return username
}

// suffixUsername appends the last five digits of the unix timestamp,
// mirroring the retry step of the collision loop.
func suffixUsername(base string, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	if len(ts) > 5 {
		ts = ts[len(ts)-5:]
	}
	return fmt.Sprintf("%s_%s", base, ts)
}
