package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tidwall/gjson"
)

// Common errors returned by the client.
var (
	// ErrEmptyBody is returned when a successful response carries no body.
	// The API contract promises a JSON document on every 2xx list or detail call.
	ErrEmptyBody = errors.New("response body is empty")

	// ErrRateLimited is returned when the hourly request quota is exhausted
	// and the request was not sent.
	ErrRateLimited = errors.New("request quota exhausted")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassEmptyBody represents a 2xx response without a body.
	ErrorClassEmptyBody ErrorClass = "empty_body"

	// ErrorClassRateLimit represents requests blocked by the local quota guard.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassCanceled represents requests abandoned by their caller.
	ErrorClassCanceled ErrorClass = "canceled"

	// ErrorClassUnknown is the catch-all class.
	ErrorClassUnknown ErrorClass = "unknown"
)

// Reportable reports whether failures of this class indicate a service
// defect and belong in the crash collector. Client and network failures are
// expected conditions and are only logged.
func (c ErrorClass) Reportable() bool {
	switch c {
	case ErrorClassServer, ErrorClassEmptyBody:
		return true
	default:
		return false
	}
}

// APIError represents a non-2xx response from the Unsplash API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string

	// Errors holds the detail strings of the {"errors": [...]} envelope.
	Errors []string

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("unsplash %s error (status %d): %s", e.ErrorClass, e.StatusCode, e.Message)
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NetworkError represents a request that never produced a response.
type NetworkError struct {
	Endpoint string
	Timeout  bool
	Err      error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("unsplash request %s timed out: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("unsplash request %s failed: %v", e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Classify maps any error returned by the client (or by code wrapping it)
// onto an ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}

	// Cancellation wins over everything else: the caller walked away.
	if errors.Is(err, context.Canceled) {
		return ErrorClassCanceled
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ErrorClassNetwork
	}

	switch {
	case errors.Is(err, ErrEmptyBody):
		return ErrorClassEmptyBody
	case errors.Is(err, ErrRateLimited):
		return ErrorClassRateLimit
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorClassNetwork
	default:
		return ErrorClassUnknown
	}
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Timeout {
		return true
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classifyStatus categorizes an HTTP status code.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500 && statusCode < 600:
		return ErrorClassServer
	default:
		return ErrorClassUnknown
	}
}

// parseErrorEnvelope extracts the detail strings from an error body of the
// form {"errors": ["..."]}. Anything else yields nil.
func parseErrorEnvelope(body []byte) []string {
	if !gjson.ValidBytes(body) {
		return nil
	}

	result := gjson.GetBytes(body, "errors")
	if !result.IsArray() {
		return nil
	}

	var details []string
	for _, item := range result.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			details = append(details, s)
		}
	}
	return details
}
