package storage

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "MissingKey",
			err:  awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req-1"),
			want: true,
		},
		{
			name: "AccessDenied",
			err:  awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), http.StatusForbidden, "req-2"),
			want: false,
		},
		{
			name: "ServerError",
			err:  awserr.NewRequestFailure(awserr.New("InternalError", "oops", nil), http.StatusInternalServerError, "req-3"),
			want: false,
		},
		{
			name: "TransportError",
			err:  errors.New("dial tcp: connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
