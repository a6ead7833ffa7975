package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "something broke"},
			contains: []string{"something broke"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Message: "exchange failed",
				Reason:  "closed",
				Hint:    "check transport",
				Try:     "zbncp selftest",
				Err:     fmt.Errorf("transport closed"),
			},
			contains: []string{"exchange failed", "Reason: closed", "Hint: check transport", "Try: zbncp selftest", "Details: transport closed"},
		},
		{
			name: "no reason",
			err: UserFriendlyError{
				Message: "failed",
				Hint:    "hint here",
			},
			contains: []string{"failed", "Hint: hint here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want to contain %q", msg, s)
				}
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	err := UserFriendlyError{Message: "msg"}
	msg := err.Error()
	if strings.Contains(msg, "Reason:") || strings.Contains(msg, "Hint:") || strings.Contains(msg, "Try:") || strings.Contains(msg, "Details:") {
		t.Errorf("Error() = %q, should not contain empty fields", msg)
	}
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := UserFriendlyError{Message: "outer", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestWrapTransportError(t *testing.T) {
	if WrapTransportError(nil, "loopback") != nil {
		t.Fatal("nil error should stay nil")
	}
	tests := []struct {
		err    error
		reason string
	}{
		{errors.New("transport has no more frames"), "no more frames"},
		{errors.New("transport closed"), "closed"},
		{errors.New("transport not initialized"), "before Init"},
		{context.DeadlineExceeded, "did not answer"},
		{errors.New("receive buffer too small"), "does not fit"},
		{errors.New("boom"), "Transport exchange failed"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			err := WrapTransportError(fmt.Errorf("exchange: %w", tt.err), "replay:x.pcap")
			var ufe UserFriendlyError
			if !errors.As(err, &ufe) {
				t.Fatalf("not a UserFriendlyError: %T", err)
			}
			if !strings.Contains(ufe.Message, "replay:x.pcap") {
				t.Errorf("message = %q", ufe.Message)
			}
			if !strings.Contains(ufe.Reason, tt.reason) {
				t.Errorf("reason = %q, want %q", ufe.Reason, tt.reason)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("wrapped error lost")
			}
		})
	}
}

func TestWrapConfigError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if WrapConfigError(nil, "zbncp.yaml") != nil {
			t.Error("expected nil")
		}
	})

	t.Run("wraps config error", func(t *testing.T) {
		err := WrapConfigError(fmt.Errorf("invalid yaml"), "zbncp.yaml")
		ufe := err.(UserFriendlyError)
		if !strings.Contains(ufe.Message, "zbncp.yaml") {
			t.Errorf("message should contain config path, got %q", ufe.Message)
		}
		if ufe.Reason != "invalid yaml" {
			t.Errorf("reason should be inner error message, got %q", ufe.Reason)
		}
		if !strings.Contains(ufe.Try, "validate-config") {
			t.Errorf("try should suggest validate-config, got %q", ufe.Try)
		}
	})

	t.Run("already wrapped error is kept", func(t *testing.T) {
		inner := WrapConfigError(fmt.Errorf("invalid yaml"), "a.yaml")
		err := WrapConfigError(inner, "b.yaml")
		if ufe := err.(UserFriendlyError); !strings.Contains(ufe.Message, "a.yaml") {
			t.Errorf("message = %q, want the inner path", ufe.Message)
		}
	})
}

func TestWrapScenarioError(t *testing.T) {
	if WrapScenarioError(nil, "zc", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	err := WrapScenarioError(context.DeadlineExceeded, "zc", []string{"NWK_FORMATION", "GET_ZIGBEE_ROLE"})
	ufe := err.(UserFriendlyError)
	if !strings.HasPrefix(ufe.Reason, "Run timed out.") {
		t.Errorf("reason = %q", ufe.Reason)
	}
	if !strings.Contains(ufe.Reason, "2 call(s): NWK_FORMATION, GET_ZIGBEE_ROLE") {
		t.Errorf("reason = %q", ufe.Reason)
	}
	if !strings.Contains(ufe.Try, "--scenario zc") {
		t.Errorf("try = %q", ufe.Try)
	}
}
