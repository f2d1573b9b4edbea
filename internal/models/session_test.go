package models

import (
	"testing"
	"time"
)

func TestIsValidSessionTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Out of pending
		{SessionStatusPending, SessionStatusVerified, true},
		{SessionStatusPending, SessionStatusCompleted, true},
		{SessionStatusPending, SessionStatusFailed, true},
		{SessionStatusPending, SessionStatusExpired, true},

		// Terminal statuses never move
		{SessionStatusVerified, SessionStatusCompleted, false},
		{SessionStatusCompleted, SessionStatusVerified, false},
		{SessionStatusFailed, SessionStatusPending, false},
		{SessionStatusFailed, SessionStatusVerified, false},
		{SessionStatusExpired, SessionStatusPending, false},

		{"nonexistent", SessionStatusVerified, false},
		{SessionStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidSessionTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidSessionTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{SessionStatusVerified, SessionStatusCompleted, SessionStatusFailed, SessionStatusExpired}
	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("status %q should be terminal", status)
		}
	}
	if IsTerminalStatus(SessionStatusPending) {
		t.Error("pending should not be terminal")
	}
	if IsTerminalStatus("nonexistent") {
		t.Error("unknown status should not report terminal")
	}
}

func TestSessionView_MessageHidden(t *testing.T) {
	s := &VerificationSession{
		Token:   "tok",
		Status:  SessionStatusPending,
		Message: "sign me",
	}

	if v := s.View(false); v.Message != "" {
		t.Errorf("sanitized view leaked message: %q", v.Message)
	}
	if v := s.View(true); v.Message != "sign me" {
		t.Errorf("view with message = %q, want %q", v.Message, "sign me")
	}
}

func TestSessionIsExpiredAt(t *testing.T) {
	now := time.Now()
	s := &VerificationSession{ExpiresAt: now.Add(10 * time.Minute)}

	if s.IsExpiredAt(now) {
		t.Error("session should not be expired before TTL")
	}
	if !s.IsExpiredAt(now.Add(10 * time.Minute)) {
		t.Error("session should be expired exactly at expires_at")
	}
	if !s.IsExpiredAt(now.Add(10*time.Minute + time.Nanosecond)) {
		t.Error("session should be expired after expires_at")
	}
}
