// Package netx holds small HTTP helpers shared by clients of the REST API.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is returned for any non-2xx response. Code and Message are
// taken from the {"error":{"code","message"}} envelope when present,
// otherwise Message is the trimmed body.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed: %d: %s", e.Status, e.Message)
}

// DoJSON sends in (if non-nil) as a JSON body and decodes a JSON response
// into out (if non-nil). A non-empty token is sent as a bearer credential.
// The response is returned so callers can read headers; its body is
// already closed.
func DoJSON(ctx context.Context, client *http.Client, method, url, token string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, decodeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return resp, nil
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
		return resp, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func decodeError(status int, data []byte) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &env) == nil && env.Error.Message != "" {
		return &StatusError{Status: status, Code: env.Error.Code, Message: env.Error.Message}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &StatusError{Status: status, Message: msg}
}
