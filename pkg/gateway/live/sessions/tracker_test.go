package sessions

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTracker_RegisterReleaseCountAndWait(t *testing.T) {
	tr := NewTracker(0)
	if tr.Count() != 0 {
		t.Fatalf("initial count=%d, want 0", tr.Count())
	}

	u1, err := tr.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("register s1: %v", err)
	}
	u2, err := tr.Register("s2", Handle{})
	if err != nil {
		t.Fatalf("register s2: %v", err)
	}
	if tr.Count() != 2 {
		t.Fatalf("count=%d, want 2", tr.Count())
	}

	u1()
	u1() // idempotent
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}

	u2()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if ok := tr.Wait(ctx); !ok {
		t.Fatal("expected Wait to complete")
	}
}

func TestTracker_CapacityCap(t *testing.T) {
	tr := NewTracker(2)
	u1, err := tr.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("register s1: %v", err)
	}
	if _, err := tr.Register("s2", Handle{}); err != nil {
		t.Fatalf("register s2: %v", err)
	}

	if _, err := tr.Register("s3", Handle{}); !errors.Is(err, ErrCapacity) {
		t.Fatalf("err=%v, want ErrCapacity", err)
	}

	u1()
	if _, err := tr.Register("s3", Handle{}); err != nil {
		t.Fatalf("register after release: %v", err)
	}
}

func TestTracker_CancelAll(t *testing.T) {
	tr := NewTracker(0)
	var c1, c2 atomic.Int64
	if _, err := tr.Register("s1", Handle{Cancel: func() { c1.Add(1) }}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Register("s2", Handle{Cancel: func() { c2.Add(1) }}); err != nil {
		t.Fatal(err)
	}

	if n := tr.CancelAll(); n != 2 {
		t.Fatalf("canceled=%d, want 2", n)
	}
	if c1.Load() != 1 || c2.Load() != 1 {
		t.Fatalf("cancel calls=%d/%d, want 1/1", c1.Load(), c2.Load())
	}
}

func TestTracker_WarnAllBestEffort(t *testing.T) {
	tr := NewTracker(0)
	var w1, w2 atomic.Int64
	if _, err := tr.Register("s1", Handle{Warn: func(string, string) error {
		w1.Add(1)
		return nil
	}}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Register("s2", Handle{Warn: func(string, string) error {
		w2.Add(1)
		return errors.New("nope")
	}}); err != nil {
		t.Fatal(err)
	}

	if sent := tr.WarnAll("draining", "shutting down"); sent != 2 {
		t.Fatalf("sent=%d, want 2", sent)
	}
	if w1.Load() != 1 || w2.Load() != 1 {
		t.Fatalf("warn calls=%d/%d, want 1/1", w1.Load(), w2.Load())
	}
}

func TestTracker_WaitTimesOut(t *testing.T) {
	tr := NewTracker(0)
	if _, err := tr.Register("stuck", Handle{}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if ok := tr.Wait(ctx); ok {
		t.Fatal("Wait should time out while a session is registered")
	}
}
