package infrastructure

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

/*
URLToSafeName converts URL with possible unsafe
characters to a unique hex string 24 bytes long
*/
func URLToSafeName(url string) string {
	sum := sha256.Sum224([]byte(url))
	safe := hex.EncodeToString(sum[:])
	return safe
}

/*
StatusError is returned when a remote service answered but the exchange
still failed. StatusCode is the HTTP status of that answer
*/
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCodeOf extracts the HTTP status attached anywhere in err's chain
func StatusCodeOf(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

// IsJSONContentType reports whether a Content-Type header value announces JSON
func IsJSONContentType(contentType string) bool {
	return strings.HasPrefix(contentType, JSONContentType)
}

// RequestBodyDecoder represents a function that can decode a HTTP response body
type RequestBodyDecoder func(io.Reader, interface{}) error

func StringBodyDecoder(in io.Reader, result interface{}) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in); err != nil {
		return err
	}

	strResult := result.(*string)
	*strResult = buf.String()
	return nil
}

// JSONBodyDecoder decodes in as a single JSON document. Trailing data is an error
func JSONBodyDecoder(in io.Reader, result interface{}) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

/*
PostJSON sends body encoded as JSON to url and decodes the answer into result.
Any status other than 200 OK is an error carrying that status
*/
func PostJSON(url string, body interface{}, client *http.Client,
	dec RequestBodyDecoder, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	// Create HTTP request
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set(ContentTypeHeader, JSONContentType)

	// Perform request and check for failures
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{resp.StatusCode, fmt.Errorf("bad HTTP status: %s", resp.Status)}
	}

	if result != nil {
		if err = dec(resp.Body, result); err != nil {
			return &StatusError{resp.StatusCode, fmt.Errorf("failed to decode response body: %w", err)}
		}
	}
	return nil
}
