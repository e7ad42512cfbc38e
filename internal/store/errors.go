package store

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable host, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates the store answered with a non-2xx status
	ErrTypeHTTP
	// ErrTypeParse indicates the store returned something that is not a mapping document
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the store address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// StoreError represents an error that occurred while talking to a mapping store
type StoreError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Body           string              // Response text for HTTP errors
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	StoreURL       string              // Store base URL (for context)
	Retryable      bool                // Whether the error is retryable
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error, storeURL string) *StoreError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &StoreError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			StoreURL:       storeURL,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &StoreError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			StoreURL:       storeURL,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &StoreError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Store refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				StoreURL:       storeURL,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &StoreError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				StoreURL:       storeURL,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &StoreError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				StoreURL:       storeURL,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, storeURL)
	}

	return &StoreError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		StoreURL:       storeURL,
		Retryable:      true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *StoreError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &StoreError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewHTTPError creates an HTTP-level error carrying the response text
func NewHTTPError(statusCode int, body string) *StoreError {
	return &StoreError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		Body:       body,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *StoreError {
	return &StoreError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

func asStoreError(err error) (*StoreError, bool) {
	var storeErr *StoreError
	ok := errors.As(err, &storeErr)
	return storeErr, ok
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	if storeErr, ok := asStoreError(err); ok {
		return storeErr.Type == ErrTypeNetwork ||
			storeErr.Type == ErrTypeTimeout ||
			storeErr.Type == ErrTypeConnectionRefused ||
			storeErr.Type == ErrTypeDNS
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if storeErr, ok := asStoreError(err); ok {
		return storeErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if storeErr, ok := asStoreError(err); ok {
		return storeErr.Type == ErrTypeParse
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if storeErr, ok := asStoreError(err); ok {
		return storeErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	storeErr, ok := asStoreError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch storeErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The mapping store did not respond in time.",
			"Troubleshooting:",
			"  • Check that joymap-store is running on the target host",
			"  • Try increasing the timeout with --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at the store address.",
			"Troubleshooting:",
			"  • Start the store: joymap-store serve",
			"  • Verify the port (default is 3000)",
			"  • Run 'joymap-edit scan' to find stores on the network",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the store hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'joymap-edit scan' to find stores on the network",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch storeErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The store host is not reachable.",
				"Troubleshooting:",
				"  • Verify the store address is correct",
				"  • Check that you're on the same network as the store host")

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "Your computer cannot reach the store's network.",
				"Troubleshooting:",
				"  • Check your network adapter settings")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the store is running")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if storeErr.StatusCode >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The store returned an error (HTTP %d).", storeErr.StatusCode),
				"Troubleshooting:",
				"  • Check the store log: joymap-edit logs",
				"  • Check that the mapping file is writable",
			}, "\n")
		}
		return fmt.Sprintf("The store returned HTTP error %d. Check the store address.", storeErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"The store's response is not a mapping document.",
			"Troubleshooting:",
			"  • Check that the address points at joymap-store",
			"  • Inspect mapping.json on the store host",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	storeErr, ok := asStoreError(err)
	if !ok {
		return err.Error()
	}

	switch storeErr.Type {
	case ErrTypeTimeout:
		return "Store not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Store refused connection - is joymap-store running?"
	case ErrTypeDNS:
		return "Cannot resolve store hostname"
	case ErrTypeNetwork:
		switch storeErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Store unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Store error (HTTP %d)", storeErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse store response"
	default:
		return storeErr.Message
	}
}
