package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil", nil, ""},
		{"api client error", &APIError{StatusCode: 404, ErrorClass: ErrorClassClient}, ErrorClassClient},
		{"api server error", &APIError{StatusCode: 502, ErrorClass: ErrorClassServer}, ErrorClassServer},
		{"wrapped api error", fmt.Errorf("load page 3: %w", &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}), ErrorClassServer},
		{"network error", &NetworkError{Endpoint: "/photos", Err: errors.New("connection refused")}, ErrorClassNetwork},
		{"empty body", fmt.Errorf("%w: /photos", ErrEmptyBody), ErrorClassEmptyBody},
		{"rate limited", fmt.Errorf("%w: /photos", ErrRateLimited), ErrorClassRateLimit},
		{"deadline", context.DeadlineExceeded, ErrorClassNetwork},
		{"canceled", context.Canceled, ErrorClassCanceled},
		{"canceled inside network error", &NetworkError{Err: context.Canceled}, ErrorClassCanceled},
		{"arbitrary", errors.New("boom"), ErrorClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorClass_Reportable(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected bool
	}{
		{ErrorClassServer, true},
		{ErrorClassEmptyBody, true},
		{ErrorClassClient, false},
		{ErrorClassNetwork, false},
		{ErrorClassRateLimit, false},
		{ErrorClassCanceled, false},
		{ErrorClassUnknown, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := tt.class.Reportable(); got != tt.expected {
				t.Errorf("%q.Reportable() = %v, want %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "status only",
			apiError: &APIError{
				StatusCode: 500,
				ErrorClass: ErrorClassServer,
				Message:    "500 Internal Server Error",
			},
			expected: "unsplash server error (status 500): 500 Internal Server Error",
		},
		{
			name: "with envelope details",
			apiError: &APIError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "404 Not Found",
				Errors:     []string{"Couldn't find User", "try again"},
			},
			expected: "unsplash client error (status 404): 404 Not Found: Couldn't find User, try again",
		},
		{
			name: "with wrapped error",
			apiError: &APIError{
				StatusCode: 503,
				ErrorClass: ErrorClassServer,
				Message:    "503 Service Unavailable",
				Err:        errors.New("upstream"),
			},
			expected: "unsplash server error (status 503): 503 Service Unavailable: upstream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &APIError{StatusCode: 500, ErrorClass: ErrorClassServer, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if (&APIError{}).Unwrap() != nil {
		t.Error("Unwrap() without wrapped error should be nil")
	}
}

func TestNetworkError_Error(t *testing.T) {
	err := &NetworkError{Endpoint: "/photos", Err: errors.New("dial tcp: refused")}
	if !strings.Contains(err.Error(), "failed") {
		t.Errorf("Error() = %q", err.Error())
	}

	timeout := &NetworkError{Endpoint: "/photos", Timeout: true, Err: context.DeadlineExceeded}
	if !strings.Contains(timeout.Error(), "timed out") {
		t.Errorf("Error() = %q", timeout.Error())
	}
	if !IsTimeout(timeout) {
		t.Error("IsTimeout() should be true")
	}
}

func TestParseErrorEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{"single", `{"errors":["Couldn't find Photo"]}`, []string{"Couldn't find Photo"}},
		{"multiple", `{"errors":["a","b"]}`, []string{"a", "b"}},
		{"blank entries dropped", `{"errors":[""," x "]}`, []string{"x"}},
		{"not an array", `{"errors":"nope"}`, nil},
		{"missing", `{"message":"x"}`, nil},
		{"invalid json", `<html>`, nil},
		{"empty", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseErrorEnvelope([]byte(tt.body))
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
				t.Errorf("parseErrorEnvelope() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{499, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{302, ErrorClassUnknown},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}
