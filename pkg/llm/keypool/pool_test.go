package keypool

import (
	"errors"
	"testing"
)

func TestNewDropsEmptyEntries(t *testing.T) {
	p := New([]string{" key-a ", "", "  ", "key-b"})
	if p.Size() != 2 {
		t.Fatalf("Size = %d, want 2", p.Size())
	}
	cur, err := p.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != "key-a" {
		t.Errorf("Current = %q, want %q", cur, "key-a")
	}
}

func TestEmptyPool(t *testing.T) {
	p := New(nil)

	if _, err := p.Current(); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Current err = %v, want ErrPoolExhausted", err)
	}
	if _, err := p.Advance(); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Advance err = %v, want ErrPoolExhausted", err)
	}
}

func TestSingleKeyCannotRotate(t *testing.T) {
	p := New([]string{"only"})

	if _, err := p.Advance(); !errors.Is(err, ErrNoAlternative) {
		t.Errorf("Advance err = %v, want ErrNoAlternative", err)
	}
	cur, _ := p.Current()
	if cur != "only" {
		t.Errorf("Current = %q, want %q", cur, "only")
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	p := New([]string{"a", "b", "c"})

	want := []string{"b", "c", "a", "b"}
	for i, w := range want {
		got, err := p.Advance()
		if err != nil {
			t.Fatalf("Advance #%d: %v", i, err)
		}
		if got != w {
			t.Errorf("Advance #%d = %q, want %q", i, got, w)
		}
	}
}
