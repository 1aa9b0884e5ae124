package arena

import (
	"testing"
	"unsafe"
)

func TestAllocAligned(t *testing.T) {
	a := New()
	for _, n := range []int{1, 3, 7, 8, 9, 100, 5000} {
		b := a.Alloc(n)
		if len(b) != n {
			t.Errorf("Alloc(%d) returned %d bytes", n, len(b))
		}
		if uintptr(unsafe.Pointer(&b[0]))%alignment != 0 {
			t.Errorf("Alloc(%d) is not %d-byte aligned", n, alignment)
		}
	}
	for p := a.first; p != nil; p = p.next {
		if p.used > len(p.buf) {
			t.Errorf("page overflow: used %d, cap %d", p.used, len(p.buf))
		}
	}
}

func TestAllocLargerThanPage(t *testing.T) {
	a := New()
	b := a.Alloc(3 * defaultPageSize)
	if len(b) != 3*defaultPageSize {
		t.Errorf("got %d bytes", len(b))
	}
}

func TestString(t *testing.T) {
	a := New()
	s := a.String("hello, world")
	if s != "hello, world" {
		t.Errorf("String copied %q", s)
	}
	if a.String("") != "" {
		t.Errorf("empty string not preserved")
	}
}

func TestResetZeroesUsage(t *testing.T) {
	a := New()
	a.Alloc(100)
	a.Alloc(2 * defaultPageSize)
	if a.BytesUsed() == 0 {
		t.Fatal("BytesUsed 0 after allocations")
	}
	a.Reset()
	if used := a.BytesUsed(); used != 0 {
		t.Errorf("BytesUsed = %d after Reset, want 0", used)
	}
	if a.first.next != nil {
		t.Errorf("extra pages retained after Reset")
	}
}

func TestResetThenReuse(t *testing.T) {
	a := New()
	a.String("first")
	a.Reset()
	s := a.String("second")
	if s != "second" {
		t.Errorf("post-reset String = %q", s)
	}
}
