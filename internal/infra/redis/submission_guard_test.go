package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSubmissionGuardClaimsOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	guard := NewSubmissionGuard(newClient(mr), time.Minute)
	ctx := context.Background()

	claimed, err := guard.Claim(ctx, "key-1")
	if err != nil || !claimed {
		t.Fatalf("expected first claim to succeed, got %v %v", claimed, err)
	}
	if !mr.Exists("quiz:submission:key-1") {
		t.Fatalf("expected redis key to be set")
	}
	claimed, err = guard.Claim(ctx, "key-1")
	if err != nil || claimed {
		t.Fatalf("expected replay to be rejected, got %v %v", claimed, err)
	}

	if err := guard.Release(ctx, "key-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if claimed, _ := guard.Claim(ctx, "key-1"); !claimed {
		t.Fatalf("expected claim after release")
	}

	mr.FastForward(2 * time.Minute)
	if claimed, _ := guard.Claim(ctx, "key-1"); !claimed {
		t.Fatalf("expected claim after ttl expiry")
	}
}
