package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOrigin(t *testing.T) {
	cases := []struct {
		origin, allowed string
		want            bool
	}{
		{"http://localhost:5173", "http://localhost:5173", true},
		{"https://admin.example.com", "*.example.com", true},
		{"https://a.b.example.com:8443", "*.example.com", true},
		{"https://example.com", "*.example.com", true},
		{"https://evilexample.com", "*.example.com", false},
		{"https://admin.example.com", "https://example.com", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, matchOrigin(c.origin, c.allowed), "%s vs %s", c.origin, c.allowed)
	}
}
