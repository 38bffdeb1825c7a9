package cache

import (
	"testing"
	"time"

	"bizqueue/pkg/model"
)

func TestStatusCache_AddGetInvalidate(t *testing.T) {
	c := NewStatusCache(10, time.Minute)

	c.Add(model.AvailabilityStatus{BusinessID: "b1", State: model.StateBusy}, c.Generation())
	got, ok := c.Get("b1")
	if !ok || got.State != model.StateBusy {
		t.Fatalf("expected cached busy status, got %+v, %v", got, ok)
	}

	c.Invalidate("b1")
	if _, ok := c.Get("b1"); ok {
		t.Error("expected entry to be gone after invalidation")
	}
}

func TestStatusCache_Expires(t *testing.T) {
	c := NewStatusCache(10, 20*time.Millisecond)
	c.Add(model.DefaultAvailability("b1"), c.Generation())

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("b1"); ok {
		t.Error("expected entry to expire after ttl")
	}
}

func TestStatusCache_RejectsLoadThatRacedInvalidation(t *testing.T) {
	c := NewStatusCache(10, time.Minute)

	gen := c.Generation()
	c.Invalidate("b1")

	if c.Add(model.DefaultAvailability("b1"), gen) {
		t.Fatal("a load started before the invalidation must not be cached")
	}
	if _, ok := c.Get("b1"); ok {
		t.Error("stale entry was cached")
	}

	if !c.Add(model.DefaultAvailability("b1"), c.Generation()) {
		t.Error("a load started after the invalidation should be cached")
	}
}

func TestStatusCache_InvalidationOfOtherKeyDoesNotBlock(t *testing.T) {
	c := NewStatusCache(10, time.Minute)

	gen := c.Generation()
	c.Invalidate("b2")

	if !c.Add(model.DefaultAvailability("b1"), gen) {
		t.Error("invalidating b2 must not reject a b1 load")
	}
}

func TestStatusCache_ForgottenInvalidationStillRejects(t *testing.T) {
	c := NewStatusCache(1, time.Minute)

	gen := c.Generation()
	c.Invalidate("b1")
	// evicts the b1 invalidation record
	c.Invalidate("b2")

	if c.Add(model.DefaultAvailability("b1"), gen) {
		t.Error("an evicted invalidation record must still reject older loads")
	}
}
