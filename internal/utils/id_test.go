package utils

import (
	"strings"
	"testing"
)

func TestNewLocalIDDistinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewLocalID()
		if !strings.HasPrefix(id, "local-") {
			t.Fatalf("missing local prefix: %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id: %q", id)
		}
		seen[id] = struct{}{}
	}
}
