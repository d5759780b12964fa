package main

import (
	"context"
	"errors"
	"net"

	"silverrail/internal/api"
)

const (
	hintAuth       = "hint: verify SILVERRAIL_API_TOKEN matches the server configuration."
	hintQuota      = "hint: the daily request quota is used up; retry after the Retry-After delay."
	hintTooLarge   = "hint: raise uploads.max_upload_bytes or upload a smaller file."
	hintNotFound   = "hint: find valid ids with: silverrail list <type>"
	hintUnknownAPI = "hint: verify SILVERRAIL_API_URL points to a silverrail server."
	hintInternal   = "hint: server returned an internal error; check server logs for details."
	hintTimeout    = "hint: request timed out; check server health or increase SILVERRAIL_HTTP_TIMEOUT."
)

var connectivityHints = []string{
	"hint: ensure a silverrail server is running at SILVERRAIL_API_URL.",
	"hint: start local server manually with: silverrail srv",
	"hint: you can increase SILVERRAIL_HTTP_TIMEOUT for slower environments.",
}

// formatCLIError renders err followed by hints for the failure class.
func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}
	lines := []string{err.Error()}

	var apiErr *api.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		lines = append(lines, apiErrorHints(apiErr)...)
	case errors.Is(err, context.DeadlineExceeded):
		lines = append(lines, hintTimeout)
	case errors.As(err, &netErr):
		lines = append(lines, connectivityHints...)
	}
	return uniqueLines(lines)
}

func apiErrorHints(apiErr *api.APIError) []string {
	var hints []string
	switch apiErr.Code {
	case "unauthorized", "forbidden":
		hints = append(hints, hintAuth)
	case "request_too_large":
		hints = append(hints, hintTooLarge)
	case "":
		hints = append(hints, hintUnknownAPI)
	}
	switch {
	case api.IsRateLimited(apiErr):
		hints = append(hints, hintQuota)
	case api.IsNotFound(apiErr) && apiErr.Code != "":
		hints = append(hints, hintNotFound)
	case apiErr.Status >= 500:
		hints = append(hints, hintInternal)
	}
	return hints
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
