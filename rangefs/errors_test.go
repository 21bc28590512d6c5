package rangefs

import (
	"errors"
	"testing"
	"time"
)

var errorKinds = []error{
	ErrConnection,
	ErrEnumeration,
	ErrOpen,
	ErrFetch,
	ErrStream,
	ErrOutOfBounds,
	ErrUnsupportedSeek,
}

func TestError_MatchesExactlyOneKind(t *testing.T) {
	cause := errors.New("boom")
	for _, kind := range errorKinds {
		err := newError("op", kind, "c", "k", cause)

		matched := 0
		for _, other := range errorKinds {
			if errors.Is(err, other) {
				matched++
			}
		}
		if matched != 1 {
			t.Errorf("%v matched %d kinds, want 1", kind, matched)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%v lost its cause", kind)
		}
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{
			newError("read", ErrFetch, "bucket", "key", errors.New("503")),
			"read bucket/key: rangefs: range fetch failed: 503",
		},
		{
			newError("enumerate", ErrEnumeration, "bucket", "", nil),
			"enumerate bucket: rangefs: enumeration failed",
		},
		{
			newError("enumerate", ErrConnection, "", "", errors.New("dial tcp")),
			"enumerate: rangefs: connection failed: dial tcp",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_As(t *testing.T) {
	var err error = newError("seek", ErrOutOfBounds, "c", "k", nil)

	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatal("errors.As failed")
	}
	if rerr.Op != "seek" || rerr.Key != "k" {
		t.Errorf("unexpected fields: %+v", rerr)
	}
}

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr bool
	}{
		{"valid", ConnectionConfig{Backend: "s3"}, false},
		{"missing backend", ConnectionConfig{Endpoint: "http://localhost:9000"}, true},
		{"negative timeout", ConnectionConfig{Backend: "minio", Timeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
