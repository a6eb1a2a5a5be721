package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIsImage(t *testing.T) {
	svc := NewService(nil)

	testCases := []struct {
		filename string
		expected bool
	}{
		{"avatar.jpg", true},
		{"avatar.JPEG", true},
		{"avatar.png", true},
		{"avatar.webp", true},
		{"avatar.gif", false},
		{"report.pdf", false},
		{"archive.zip", false},
		{"noextension", false},
		{"trailing.", false},
	}

	for _, tc := range testCases {
		if actual := svc.IsImage(tc.filename); actual != tc.expected {
			t.Errorf("IsImage(%q) = %v; want %v", tc.filename, actual, tc.expected)
		}
	}
}

func TestAvatarKey(t *testing.T) {
	svc := NewService(nil)
	userID := uuid.New()

	key := svc.AvatarKey(userID)
	if !strings.HasPrefix(key, "avatar/"+userID.String()+"/") {
		t.Errorf("AvatarKey() = %q; want avatar/%s/ prefix", key, userID)
	}
	if key == svc.AvatarKey(userID) {
		t.Error("AvatarKey produced the same key twice")
	}
	if strings.ToLower(key) != key {
		t.Errorf("AvatarKey() = %q; want lowercase", key)
	}
}
