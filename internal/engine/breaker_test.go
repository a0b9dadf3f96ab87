package engine

import "testing"

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, 2)

	if b.RecordRejection() {
		t.Error("opened after 1 rejection, threshold is 3")
	}
	if b.RecordRejection() {
		t.Error("opened after 2 rejections, threshold is 3")
	}
	if !b.RecordRejection() {
		t.Error("did not open at the third rejection")
	}
	if !b.Open() {
		t.Error("breaker not open after threshold reached")
	}
}

func TestBreakerSuccessResetsRun(t *testing.T) {
	b := NewBreaker(3, 2)
	b.RecordRejection()
	b.RecordRejection()
	b.RecordSuccess()

	if b.Consecutive() != 0 {
		t.Errorf("consecutive = %d after success, want 0", b.Consecutive())
	}
	if b.RecordRejection() {
		t.Error("opened after a reset run of 1")
	}
}

func TestBreakerCooldown(t *testing.T) {
	b := NewBreaker(1, 2)
	b.RecordRejection()

	if !b.Open() {
		t.Fatal("breaker should be open")
	}
	b.Tick()
	if !b.Open() {
		t.Error("closed after 1 of 2 cooldown cycles")
	}
	b.Tick()
	if b.Open() {
		t.Error("still open after full cooldown")
	}
	if b.Consecutive() != 0 {
		t.Errorf("consecutive = %d after cooldown, want 0", b.Consecutive())
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(0, -5)
	if b.threshold != 3 || b.cooldown != 10 {
		t.Errorf("defaults = %d/%d, want 3/10", b.threshold, b.cooldown)
	}
}
