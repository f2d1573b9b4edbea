package registry

import (
	"testing"
	"time"
)

func TestConsume_SingleDelivery(t *testing.T) {
	r := NewInteractionRegistry(DefaultTTL)
	r.Register("tok1", Entry{InteractionID: "i1", UserID: "u1"})

	e, ok := r.Consume("tok1")
	if !ok {
		t.Fatal("first consume should return the entry")
	}
	if e.InteractionID != "i1" || e.UserID != "u1" {
		t.Errorf("unexpected entry: %+v", e)
	}

	if _, ok := r.Consume("tok1"); ok {
		t.Fatal("second consume must return nothing")
	}
}

func TestConsume_UnknownToken(t *testing.T) {
	r := NewInteractionRegistry(DefaultTTL)
	if _, ok := r.Consume("missing"); ok {
		t.Fatal("unknown token must not resolve")
	}
}

func TestTTLPruning(t *testing.T) {
	now := time.Now()
	r := NewInteractionRegistry(15 * time.Minute)
	r.now = func() time.Time { return now }

	r.Register("old", Entry{InteractionID: "i1"})

	// Сдвигаем часы за TTL
	now = now.Add(15*time.Minute + time.Second)

	if _, ok := r.Consume("old"); ok {
		t.Fatal("entry older than TTL must be pruned")
	}
	if r.Len() != 0 {
		t.Errorf("registry len = %d, want 0", r.Len())
	}
}

func TestSweepOnRegisterBoundsMemory(t *testing.T) {
	now := time.Now()
	r := NewInteractionRegistry(15 * time.Minute)
	r.now = func() time.Time { return now }

	r.Register("a", Entry{})
	r.Register("b", Entry{})

	now = now.Add(16 * time.Minute)
	r.Register("c", Entry{})

	if r.Len() != 1 {
		t.Errorf("registry len = %d, want 1 (a and b swept on insert)", r.Len())
	}
	if _, ok := r.Consume("c"); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}

func TestFreshEntrySurvivesWithinTTL(t *testing.T) {
	now := time.Now()
	r := NewInteractionRegistry(15 * time.Minute)
	r.now = func() time.Time { return now }

	r.Register("tok", Entry{UserID: "u1"})

	now = now.Add(14 * time.Minute)

	if _, ok := r.Consume("tok"); !ok {
		t.Fatal("entry within TTL must still resolve")
	}
}
