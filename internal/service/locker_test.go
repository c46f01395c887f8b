package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedLocker_ExcludesSameKey(t *testing.T) {
	locks := newKeyedLocker()

	unlock := locks.Lock("bob")

	acquired := make(chan struct{})

	go func() {
		release := locks.Lock("bob")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same key did not wait")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired")
	}
}

func TestKeyedLocker_IndependentKeys(t *testing.T) {
	locks := newKeyedLocker()

	unlock := locks.Lock("bob")
	defer unlock()

	acquired := make(chan struct{})

	go func() {
		release := locks.Lock("carol")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Lock on a different key blocked")
	}
}

func TestKeyedLocker_SharedReaders(t *testing.T) {
	locks := newKeyedLocker()

	first := locks.RLock("bob")
	second := locks.RLock("bob")

	if locks.size() != 1 {
		t.Errorf("size() = %d, want 1", locks.size())
	}

	first()
	second()
}

func TestKeyedLocker_ForgetsReleasedKeys(t *testing.T) {
	locks := newKeyedLocker()

	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.Lock("bob")
			unlock()
		}()
	}

	wg.Wait()

	if locks.size() != 0 {
		t.Errorf("size() = %d after all locks released, want 0", locks.size())
	}
}
