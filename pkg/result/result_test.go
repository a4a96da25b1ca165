package result

import (
	"errors"
	"testing"
)

func TestFrom(t *testing.T) {
	ok := From(42, nil)
	if !ok.IsOk() {
		t.Fatal("From(42, nil) should be ok")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Errorf("Unwrap() = (%v, %v), want (42, nil)", v, err)
	}

	boom := errors.New("boom")
	failed := From(7, boom)
	if failed.IsOk() {
		t.Fatal("From(7, err) should not be ok")
	}
	if v, err := failed.Unwrap(); v != 0 || !errors.Is(err, boom) {
		t.Errorf("Unwrap() = (%v, %v), want (0, boom)", v, err)
	}
}

func TestErrKeepsZeroValue(t *testing.T) {
	r := Err[*int](errors.New("x"))
	if v, _ := r.Unwrap(); v != nil {
		t.Errorf("value = %v, want nil", v)
	}
	if r.Err() == nil {
		t.Error("Err() = nil")
	}
}
