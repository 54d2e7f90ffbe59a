package util

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const errorBodyLimit = 512

// StatusError is returned when an API answers with an unexpected status code.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) TooManyRequests() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// CheckResponse returns a *StatusError if rs does not carry one of the accepted status codes.
// With no accepted codes given, any 2xx code passes. The body is left open on success.
func CheckResponse(rs *http.Response, accepted ...int) error {
	if len(accepted) == 0 {
		if rs.StatusCode >= 200 && rs.StatusCode < 300 {
			return nil
		}
	}
	for _, code := range accepted {
		if rs.StatusCode == code {
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(rs.Body, errorBodyLimit))
	return &StatusError{
		StatusCode: rs.StatusCode,
		RetryAfter: ParseRetryAfter(rs.Header.Get("Retry-After")),
		Body:       string(body),
	}
}

// ParseRetryAfter understands both delay-seconds and HTTP-date values. Zero means absent or invalid.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
