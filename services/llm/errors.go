// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// RateLimitError signals that the caller exceeded the analysis budget.
// It must surface to the user with the retry delay; the fallback path is
// reserved for backend failures, not for limits the client imposed.
type RateLimitError struct {
	Mode       Mode
	RetryAfter int // seconds until the oldest counted call leaves the window
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s analysis, retry in %ds", e.Mode, e.RetryAfter)
}

// IsRateLimited reports whether err is a local window rejection or a
// 429 from the backend. Either way the caller waits, never falls back.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}

// IsUnavailable reports whether err means the backend is temporarily
// unreachable: server-side 5xx, a timed-out context, or a network
// timeout. These trigger the neutral fallback assessment.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
