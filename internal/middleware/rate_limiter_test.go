package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterUserWindow(t *testing.T) {
	rl := NewRateLimiter(3, 100, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.AllowUser(1) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.AllowUser(1) {
		t.Error("fourth request should be rejected")
	}
	if !rl.AllowUser(2) {
		t.Error("other users have their own window")
	}
}

func TestRateLimiterIPWindow(t *testing.T) {
	rl := NewRateLimiter(100, 2, time.Minute)

	if !rl.AllowIP("10.0.0.1") || !rl.AllowIP("10.0.0.1") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.AllowIP("10.0.0.1") {
		t.Error("third request should be rejected")
	}
	if !rl.AllowIP("10.0.0.2") {
		t.Error("other addresses have their own window")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 1, 10*time.Millisecond)

	if !rl.AllowUser(1) {
		t.Fatal("first request should be allowed")
	}
	if rl.AllowUser(1) {
		t.Fatal("second request should be rejected")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.AllowUser(1) {
		t.Error("request after the window should be allowed")
	}
}
