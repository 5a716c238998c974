package process

import "testing"

func TestExitStatus_Predicates(t *testing.T) {
	if !Exited(0).Succeeded() {
		t.Fatalf("exit 0 should succeed")
	}
	if Exited(1).Succeeded() {
		t.Fatalf("exit 1 should not succeed")
	}
	if Signaled(0).Succeeded() {
		t.Fatalf("a signal never succeeds")
	}
	if !Exited(3).Matches(3) || Exited(3).Matches(4) {
		t.Fatalf("Matches mismatch for exit 3")
	}
	for n := -1; n < 70; n++ {
		if Signaled(n).Matches(n) {
			t.Fatalf("Signaled(%d) must not match code %d", n, n)
		}
	}
}

func TestExitStatus_Equality(t *testing.T) {
	if Exited(9) != Exited(9) {
		t.Fatalf("equal exits compare unequal")
	}
	if Exited(9) == Signaled(9) {
		t.Fatalf("exit 9 and signal 9 compare equal")
	}
}

func TestExitStatus_Accessors(t *testing.T) {
	if code, ok := Exited(2).Code(); !ok || code != 2 {
		t.Fatalf("Code = %d, %v", code, ok)
	}
	if _, ok := Exited(2).Signal(); ok {
		t.Fatalf("exit status reported a signal")
	}
	if sig, ok := Signaled(15).Signal(); !ok || sig != 15 {
		t.Fatalf("Signal = %d, %v", sig, ok)
	}
	if _, ok := Signaled(15).Code(); ok {
		t.Fatalf("signal status reported a code")
	}
	if Signaled(15).Exited() {
		t.Fatalf("signal status reported normal exit")
	}
}

func TestExitStatus_String(t *testing.T) {
	if got := Exited(1).String(); got != "exit code: 1" {
		t.Fatalf("got %q", got)
	}
	if got := Signaled(1).String(); got != "signal: 1" {
		t.Fatalf("got %q", got)
	}
}
