package kmcerr

import "testing"

func TestExitPanicsWithFatalError(t *testing.T) {
	defer func() {
		r := recover()
		fe, ok := r.(*FatalError)
		if !ok || fe.Msg != "boom" {
			t.Fatalf("got %#v", r)
		}
	}()
	Exit("boom")
}

func TestExitIfOnlyPanicsWhenTrue(t *testing.T) {
	ExitIf(false, "should not panic")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when condition is true")
		}
	}()
	ExitIf(true, "should panic")
}

func TestAbortIffFormats(t *testing.T) {
	defer func() {
		r := recover()
		fe, ok := r.(*FatalError)
		if !ok || fe.Msg != "bad value 3" {
			t.Fatalf("got %#v", r)
		}
	}()
	AbortIff(true, "bad value %d", 3)
}
