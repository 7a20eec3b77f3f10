package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "configuration",
			err:  Configuration("job", "start year %d must be before end year %d", 2024, 2015),
			want: "job: configuration error: start year 2024 must be before end year 2015",
		},
		{
			name: "transport with status",
			err:  Transport("flickr.photos.search", 502, fmt.Errorf("bad gateway")),
			want: "flickr.photos.search: transport error (code 502): bad gateway",
		},
		{
			name: "protocol",
			err:  Protocol("flickr.photos.getInfo", "stat %q: %s", "fail", "Photo not found"),
			want: `flickr.photos.getInfo: protocol error: stat "fail": Photo not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUnwrapAndTypeOf(t *testing.T) {
	inner := errors.New("disk full")
	err := fmt.Errorf("append ledger: %w", Storage("ledger.Append", inner))

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ErrorTypeStorage, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(Transport("get", 0, errors.New("reset"))))
	assert.False(t, IsFatal(Protocol("search", "bad json")))
	assert.True(t, IsFatal(Storage("write", errors.New("eio"))))
	assert.True(t, IsFatal(Configuration("job", "missing zone")))
	assert.True(t, IsFatal(context.Canceled))
}
