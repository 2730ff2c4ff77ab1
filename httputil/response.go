package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected empty response body")
		}

		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return respBody, nil
}

// IsNotFoundResponse reports whether a Spotify Web API error body carries a
// 404 status, e.g. {"error":{"status":404,"message":"non existing id"}}.
func IsNotFoundResponse(b []byte) bool {
	if !gjson.ValidBytes(b) {
		return false
	}

	return gjson.GetBytes(b, "error.status").Int() == http.StatusNotFound
}

// IsRateLimitedResponse reports whether a Spotify Web API error body carries
// a 429 status.
func IsRateLimitedResponse(b []byte) bool {
	if !gjson.ValidBytes(b) {
		return false
	}

	return gjson.GetBytes(b, "error.status").Int() == http.StatusTooManyRequests
}

// ErrorMessage extracts the error.message field from a Spotify Web API error
// body, or returns the raw body when the shape is unexpected.
func ErrorMessage(b []byte) string {
	if gjson.ValidBytes(b) {
		if msg := gjson.GetBytes(b, "error.message"); msg.Type == gjson.String {
			return msg.Str
		}
	}

	return string(b)
}
