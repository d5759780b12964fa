package main

import (
	"context"
	"fmt"
	"net"
	"testing"

	"silverrail/internal/api"
)

func TestFormatCLIErrorHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "network",
			err:  &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true},
			want: connectivityHints,
		},
		{
			name: "timeout",
			err:  fmt.Errorf("get info: %w", context.DeadlineExceeded),
			want: []string{hintTimeout},
		},
		{
			name: "unknown service",
			err:  &api.APIError{Status: 404, Message: "api error: 404 Not Found"},
			want: []string{hintUnknownAPI},
		},
		{
			name: "missing record",
			err:  &api.APIError{Status: 404, Code: "not_found", ErrorCode: 2001, Message: "character 9 not found"},
			want: []string{hintNotFound},
		},
		{
			name: "auth",
			err:  &api.APIError{Status: 401, Code: "unauthorized", Message: "authentication required"},
			want: []string{hintAuth},
		},
		{
			name: "quota",
			err:  &api.APIError{Status: 429, Code: "resource_exhausted", Message: "request quota exceeded"},
			want: []string{hintQuota},
		},
		{
			name: "upload too large",
			err:  &api.APIError{Status: 413, Code: "request_too_large", Message: "file too large"},
			want: []string{hintTooLarge},
		},
		{
			name: "internal",
			err:  &api.APIError{Status: 500, Code: "internal", Message: "internal error"},
			want: []string{hintInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := formatCLIError(tt.err)
			if len(lines) == 0 || lines[0] != tt.err.Error() {
				t.Fatalf("expected error text first, got %v", lines)
			}
			for _, want := range tt.want {
				if !containsLine(lines, want) {
					t.Fatalf("expected %q in %v", want, lines)
				}
			}
		})
	}
}

func TestFormatCLIErrorPlainError(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("invalid id %q", "abc"))
	if len(lines) != 1 {
		t.Fatalf("expected no hints for plain errors, got %v", lines)
	}
	if formatCLIError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
