package weft

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/weft/errors"
)

func TestUnixDurationUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		Raw     string
		Want    UnixDuration
		WantErr *errors.Error
	}{
		"seconds":          {Raw: `3600`, Want: 3600},
		"duration string":  {Raw: `"240h"`, Want: 10 * 24 * 60 * 60},
		"fraction dropped": {Raw: `"1500ms"`, Want: 1},
		"invalid string":   {Raw: `"ten days"`, WantErr: errors.ErrInput},
		"invalid type":     {Raw: `true`, WantErr: errors.ErrInput},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixDuration
			err := json.Unmarshal([]byte(tc.Raw), &got)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr == nil && got != tc.Want {
				t.Fatalf("want %d, got %d", tc.Want, got)
			}
		})
	}
}

func TestUnixTimeAddDuration(t *testing.T) {
	created := AsUnixTime(time.Unix(1560000000, 0))
	delay := AsUnixDuration(10 * 24 * time.Hour)

	if got, want := created.Add(delay.Duration()), UnixTime(1560000000+864000); got != want {
		t.Fatalf("want %d, got %d", want, got)
	}
	if got := delay.String(); got != "240h0m0s" {
		t.Fatalf("unexpected string form %q", got)
	}
}
