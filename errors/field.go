package errors

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Field returns an error instance that wraps the original error with
// additional information. It returns `nil` if provided error is `nil`.
// Use this function to create an error instance describing a field/attribute
// error.
//
// Use Go naming for the field name. For example, Maker or MintA. When the
// error is for a nested field, use dot notation to construct the path, for
// example Accounts.0.Address.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if errIsNil(err) {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}

	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField is a shortcut function to club together error(s) with a given
// field error.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

// Cause implements the causer interface.
func (err *fieldError) Cause() error {
	return err.parent
}

// Field implements fielder interface.
func (err *fieldError) Field() string {
	return err.field
}

// FieldErrors returns the list of all errors that are created for the given
// field name.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	walkFields(err, func(name string, e error) bool {
		if name == fieldName {
			res = append(res, e)
			return false
		}
		return true
	})
	return res
}

// FieldNames returns the sorted names of all fields that given error holds
// an error for. A name is listed once, even if the field failed many times.
func FieldNames(err error) []string {
	seen := make(map[string]struct{})
	var names []string
	walkFields(err, func(name string, _ error) bool {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// walkFields calls fn for every field error found in err. The cause of a
// field error is searched only if fn returns true.
func walkFields(err error, fn func(name string, err error) bool) {
	for !errIsNil(err) {
		if f, ok := err.(fielder); ok && !fn(f.Field(), err) {
			return
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				walkFields(e, fn)
			}
			return
		}
		c, ok := err.(causer)
		if !ok {
			return
		}
		err = c.Cause()
	}
}

type fielder interface {
	// Field returns the field name that this error is created for.
	Field() string
}
