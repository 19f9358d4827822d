package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushTokenValid(t *testing.T) {
	cases := []struct {
		name  string
		token string
		valid bool
	}{
		{"typical registration token", "fGxK9dQpTs2mB7vHcWyJ4nL8rAeZ1oMqXuVi5kNbD3gSfhPjEw0RtCl6aIzUyO", true},
		{"token with separators", "cXxY2z:APA91bF-dummy_token-with.allowed~chars1234", true},
		{"minimum length", strings.Repeat("a", 32), true},
		{"maximum length", strings.Repeat("a", 4096), true},
		{"empty", "", false},
		{"too short", strings.Repeat("a", 31), false},
		{"too long", strings.Repeat("a", 4097), false},
		{"embedded space", "abcdefghijklmnop qrstuvwxyz012345", false},
		{"embedded newline", "abcdefghijklmnop\nqrstuvwxyz012345", false},
		{"non-ascii", "abcdefghijklmnopqrstuvwxyz01234é", false},
		{"control character", "abcdefghijklmnop\x01qrstuvwxyz012345", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, PushToken(tc.token).Valid())
		})
	}
}
