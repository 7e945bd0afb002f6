package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/rhuss/pinpoint/pkg/api"
)

// secretParams lists query parameters that carry credentials.
var secretParams = []string{"key"}

// MapHTTPError converts a reply with a non-2xx status code into an
// upstream_unavailable APIError. The backend's own error message is used
// when the body carries one.
func MapHTTPError(provider string, resp *http.Response) *api.APIError {
	message := ExtractErrorMessage(resp.Body)
	cause := fmt.Errorf("backend returned HTTP %d", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "backend rejected the request"
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "backend authentication failed"
		}
	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "backend endpoint or model not found"
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}
	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend status (HTTP %d)", resp.StatusCode)
		}
	}

	apiErr := api.NewUpstreamError(provider, message, cause)
	apiErr.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	return apiErr
}

// MapNetworkError converts a network-level error (connection refused,
// timeout, DNS failure, truncated body) into an upstream_unavailable
// APIError. Credentials in the request URL are redacted first.
func MapNetworkError(provider string, err error) *api.APIError {
	err = RedactError(err)
	return api.NewUpstreamError(provider, fmt.Sprintf("backend connection error: %s", err.Error()), err)
}

// ExtractErrorMessage reads an error body and returns the backend's message.
// Both {"error":{"message":"..."}} and {"error":"..."} shapes are understood.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 || !gjson.ValidBytes(data) {
		return ""
	}

	if msg := gjson.GetBytes(data, "error.message"); msg.Type == gjson.String && msg.Str != "" {
		return msg.Str
	}
	if msg := gjson.GetBytes(data, "error"); msg.Type == gjson.String && msg.Str != "" {
		return msg.Str
	}
	return ""
}

// RedactError returns err with credentials removed from an embedded
// *url.Error. Other errors are returned unchanged.
func RedactError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = RedactURL(urlErr.URL)
		return &redacted
	}
	return err
}

// RedactURL masks credential query parameters in a URL string.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
