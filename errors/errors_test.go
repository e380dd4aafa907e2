package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different root errors": {
			a:      ErrNotFound,
			b:      ErrDuplicate,
			wantIs: false,
		},
		"wrapped error": {
			a:      ErrConstraint,
			b:      Wrap(Wrap(ErrConstraint, "escrow"), "make"),
			wantIs: true,
		},
		"stdlib error": {
			a:      ErrHuman,
			b:      stdlib.New("human"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"multi error containing the kind": {
			a:      ErrExpired,
			b:      Append(ErrInput, Wrap(ErrExpired, "deadline")),
			wantIs: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got %v", got)
			}
		})
	}
}

func TestRegisterDuplicatedCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Register(ErrNotFound.ABCICode(), "another not found")
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "nothing"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil error": {
			err:      nil,
			wantCode: SuccessABCICode,
			wantLog:  "",
		},
		"registered error": {
			err:      Wrap(ErrNotFound, "escrow"),
			wantCode: ErrNotFound.ABCICode(),
			wantLog:  "escrow: not found",
		},
		"stdlib error is redacted": {
			err:      fmt.Errorf("database password is 1234"),
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want %d code, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want %q log, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestABCIError(t *testing.T) {
	if err := ABCIError(SuccessABCICode, ""); err != nil {
		t.Fatalf("want no error, got %v", err)
	}

	err := ABCIError(ErrExpired.ABCICode(), "cannot deliver tx: escrow: expired")
	if !ErrExpired.Is(err) {
		t.Fatalf("want expired error, got %v", err)
	}
	if code, _ := ABCIInfo(err, false); code != ErrExpired.ABCICode() {
		t.Fatalf("want %d code, got %d", ErrExpired.ABCICode(), code)
	}

	err = ABCIError(987654, "unknown failure")
	if code, log := ABCIInfo(err, false); code != 987654 || log != "unknown failure" {
		t.Fatalf("unexpected code %d and log %q", code, log)
	}
}

func TestStackTraceIsPrinted(t *testing.T) {
	err := Wrap(ErrState, "closed")
	if msg := fmt.Sprintf("%+v", err); !strings.Contains(msg, "errors_test.go") {
		t.Fatalf("stack trace not printed: %s", msg)
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	if err := fn(); !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %v", err)
	}
}
