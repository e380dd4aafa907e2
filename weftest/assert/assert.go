/*
Package assert holds the few checks that the weft packages repeat in
nearly every test: nil values, equality, error kinds and their ABCI codes,
field errors of a validation result and account addresses.

Every helper fails the test immediately.
*/
package assert

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Tester is the subset of testing.TB used by the helpers. It allows the
// helpers to be tested with a recording implementation.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Nil fails the test if given value is not nil. A typed nil pointer stored
// in an interface is nil as well.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of weft errors.
		t.Fatalf("want nil, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails the test if two values are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Address fails the test unless both addresses are the same. Addresses are
// printed in their hex form.
func Address(t Tester, want, got weft.Address) {
	t.Helper()
	if !want.Equals(got) {
		t.Fatalf("want address %s, got %s", want, got)
	}
}

// Panics fails the test if given function returns without a panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test unless got is want or is of the kind of want. Two
// nil errors match.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}

// ErrCode fails the test unless the error carries given ABCI code, the way
// it would be reported in a transaction result.
func ErrCode(t Tester, err error, code uint32) {
	t.Helper()
	if got, log := errors.ABCIInfo(err, false); got != code {
		t.Fatalf("want code %d, got %d: %s", code, got, log)
	}
}

// FieldError fails the test unless err holds exactly one error for given
// field and that error is of the wanted kind. Pass a nil want to ensure that
// the field has no error.
func FieldError(t Tester, err error, field string, want *errors.Error) {
	t.Helper()
	if msg := checkField(err, field, want); msg != "" {
		for i, e := range errors.FieldErrors(err, field) {
			t.Logf("\t%s error %d: %q", field, i+1, e)
		}
		t.Fatal(msg)
	}
}

// FieldErrors runs FieldError for every field of want, in field name order.
func FieldErrors(t Tester, err error, want map[string]*errors.Error) {
	t.Helper()
	fields := make([]string, 0, len(want))
	for f := range want {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		FieldError(t, err, f, want[f])
	}
}

// checkField returns a description of the mismatch or an empty string.
func checkField(err error, field string, want *errors.Error) string {
	errs := errors.FieldErrors(err, field)
	switch {
	case want == nil && len(errs) == 0:
		return ""
	case want == nil:
		return "want no " + field + " error, got " + errs[0].Error()
	case len(errs) == 0:
		return fmt.Sprintf("no %s error found, fields with errors: %q", field, errors.FieldNames(err))
	case len(errs) > 1:
		return "want one " + field + " error, got many"
	case !want.Is(errs[0]):
		return "unexpected " + field + " error: " + errs[0].Error()
	}
	return ""
}
