package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const orsMaxAttempts = 4

// statusError is a non-2xx answer from OpenRouteService.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Code, e.Body)
}

// postJSON sends in as a JSON body to path and decodes the reply into out.
// Transient failures are retried with exponential backoff; the limiter is
// waited on before every attempt.
func (o *ORSBackend) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ors %s: marshal request: %w", path, err)
	}

	wait := o.backoff
	var lastErr error

	for attempt := 1; attempt <= orsMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("ors %s: rate limiter: %w", path, err)
			}
		}

		lastErr = o.send(ctx, path, payload, out)
		if lastErr == nil {
			return nil
		}

		delay, retry := retryDelay(lastErr, wait)
		if !retry || attempt == orsMaxAttempts {
			break
		}
		log.Debug().Str("path", path).Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("ors retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}

	return fmt.Errorf("ors %s: %w", path, lastErr)
}

func (o *ORSBackend) send(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// retryDelay reports whether err is transient and how long to wait.
// A Retry-After header overrides the backoff when it is longer.
func retryDelay(err error, backoff time.Duration) (time.Duration, bool) {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if se.RetryAfter > backoff {
				return se.RetryAfter, true
			}
			return backoff, true
		}
		return 0, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}
	return 0, false
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
