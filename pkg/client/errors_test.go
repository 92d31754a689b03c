package client

import (
	"errors"
	"strings"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	err := &FetchError{
		StatusCode: 502,
		Class:      ErrorClassServer,
		Message:    "502 Bad Gateway",
	}

	msg := err.Error()
	if !strings.Contains(msg, "server") || !strings.Contains(msg, "502") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &FetchError{Class: ErrorClassNetwork, Message: "request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap must expose the inner error")
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassNetwork, true},
		{ErrorClassDecode, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{200, ""},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
