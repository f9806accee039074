package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	if PairKey("U2", "U1") != PairKey("U1", "U2") {
		t.Fatal("pair key must not depend on argument order")
	}
	if PairKey("U1", "U2") != "U1|U2" {
		t.Fatalf("got %q", PairKey("U1", "U2"))
	}
}

func TestSameKeySerializes(t *testing.T) {
	km := New()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("A|B")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxSeen)
	}
	if km.Len() != 0 {
		t.Fatalf("idle keys should be released, got %d", km.Len())
	}
}

func TestDisjointKeysDoNotBlock(t *testing.T) {
	km := New()
	unlockA := km.Lock("A|B")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("C|D")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	km := New()
	unlock := km.Lock("k")
	unlock()
	unlock()
	if km.Len() != 0 {
		t.Fatal("double unlock must not corrupt ref count")
	}
}
