package main

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	line, err := format([]byte(`{"device_id":"phone-1","title":"Wake up!","body":"You are 420 m from Office","timestamp":1715003456}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(line, "phone-1: Wake up! | You are 420 m from Office") {
		t.Errorf("unexpected line %q", line)
	}

	if _, err := format([]byte("nope")); err == nil {
		t.Error("expected error")
	}
}
