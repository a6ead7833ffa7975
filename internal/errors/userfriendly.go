package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapTransportError wraps a failed exchange with the transport it ran on.
func WrapTransportError(err error, transport string) error {
	if err == nil {
		return nil
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Exchange with NCP over %s failed", transport),
		Reason:  extractTransportReason(err),
		Hint:    "Replays end when the capture runs out; loopback runs only answer what the script lists",
		Try:     "zbncp selftest",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}
	var ufe UserFriendlyError
	if stderrors.As(err, &ufe) {
		return err
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Run 'zbncp init' to generate a commented starting config",
		Try:     fmt.Sprintf("zbncp validate-config --config %s", configPath),
		Err:     err,
	}
}

// WrapScenarioError wraps a scenario that stopped before its required calls
// were captured.
func WrapScenarioError(err error, scenario string, pending []string) error {
	if err == nil {
		return nil
	}
	reason := "Scenario stopped early"
	if len(pending) > 0 {
		reason = fmt.Sprintf("Still waiting for %d call(s): %s", len(pending), strings.Join(pending, ", "))
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		reason = "Run timed out. " + reason
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Scenario %s did not complete", scenario),
		Reason:  reason,
		Hint:    "Check the log for 'Waiting for' lines; they name the call the verifier expected",
		Try:     fmt.Sprintf("zbncp run --scenario %s --debug", scenario),
		Err:     err,
	}
}

func extractTransportReason(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "no more frames"):
		return "Capture replay has no more frames"
	case strings.Contains(errStr, "closed"):
		return "Transport was closed before the run finished"
	case strings.Contains(errStr, "not initialized"):
		return "Transport was used before Init"
	case strings.Contains(errStr, "deadline exceeded") || strings.Contains(errStr, "timeout"):
		return "NCP did not answer within the run timeout"
	case strings.Contains(errStr, "too small"):
		return "Received frame does not fit the receive buffer"
	}
	return "Transport exchange failed"
}
