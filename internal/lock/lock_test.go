package lock

import (
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	dir := t.TempDir()

	release, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := Acquire(dir); err == nil {
		t.Error("second acquire should fail while lock is held")
	}

	release()

	release2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}
