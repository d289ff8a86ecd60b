package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	key := uuid.New()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(key)
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if km.Len() != 0 {
		t.Errorf("expected all keys released, %d left", km.Len())
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	a, b := uuid.New(), uuid.New()

	unlockA := km.Lock(a)
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(b)
		unlockB()
		close(done)
	}()
	<-done // would deadlock if b waited for a
	if km.Len() != 1 {
		t.Errorf("expected 1 held key, got %d", km.Len())
	}

	unlockA()
	unlockA() // second call is a no-op
	if km.Len() != 0 {
		t.Errorf("expected no keys, got %d", km.Len())
	}
}
