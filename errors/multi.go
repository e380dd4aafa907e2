package errors

import "strings"

// Append combines any number of errors into one. Nil values are ignored. If
// no error is left, nil is returned. Single error is returned as it is.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if errIsNil(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type multiErr []error

func (m multiErr) Error() string {
	msgs := make([]string, len(m))
	for i, e := range m {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unpack returns all errors contained.
func (m multiErr) Unpack() []error {
	return m
}

// ABCICode returns the code of the first error that declares one.
func (m multiErr) ABCICode() uint32 {
	for _, e := range m {
		if c := abciCode(e); c != internalABCICode {
			return c
		}
	}
	return internalABCICode
}
