package nbclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Error taxonomy for remote rejections. All are surfaced to the caller
// unrecovered: this client has no domain knowledge to decide which
// field caused a conflict or validation failure.
var (
	// ErrNotFound — the read target does not exist. Fatal to the
	// operation; no write is attempted after it.
	ErrNotFound = errors.New("not found")

	// ErrConflict — the write was rejected due to a concurrent
	// modification. The caller may retry by re-running the whole
	// read-merge-write cycle; this client never retries it.
	ErrConflict = errors.New("conflict")

	// ErrValidation — the payload failed remote schema validation.
	// Retrying the same payload cannot succeed, so it never is.
	ErrValidation = errors.New("validation rejected")

	// ErrUnauthorized — missing or expired session token.
	ErrUnauthorized = errors.New("unauthorized")
)

// mapAPIError translates an HTTP response into the error taxonomy.
// The response body is carried verbatim so the caller sees exactly
// what the platform said.
func mapAPIError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, body)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	default:
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}
}
