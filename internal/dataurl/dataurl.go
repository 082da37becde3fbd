// Package dataurl converts between binary image payloads and the
// self-describing data URL encoding persisted in the history store.
package dataurl

import (
	"encoding/base64"
	"fmt"
	"strings"

	"brushup/internal/errors"
)

// DefaultMediaType is assumed for strings that are not recognizably
// self-describing.
const DefaultMediaType = "image/jpeg"

const prefix = "data:"

// Encode produces a data URL embedding the MIME type and base64 payload.
func Encode(data []byte, mediaType string) string {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return prefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode is the exact inverse of Encode: it returns the MIME type and raw
// bytes of a data URL.
func Decode(s string) (mediaType string, data []byte, err error) {
	if !IsDataURL(s) {
		return "", nil, errors.NewInvalidRequest("not a data URL")
	}
	header, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok {
		return "", nil, errors.NewInvalidRequest("malformed data URL: missing payload")
	}
	// The MIME type may itself carry ";"-separated parameters (sniffed types
	// like "text/plain; charset=utf-8" do), so only the last segment is the
	// encoding marker.
	idx := strings.LastIndex(header, ";")
	if idx < 0 || header[idx+1:] != "base64" {
		return "", nil, errors.NewInvalidRequest("malformed data URL: expected base64 encoding")
	}
	mediaType = header[:idx]
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	data, decErr := base64.StdEncoding.DecodeString(payload)
	if decErr != nil {
		return "", nil, errors.NewInvalidRequest(fmt.Sprintf("malformed data URL payload: %v", decErr))
	}
	return mediaType, data, nil
}

// MediaType extracts the MIME type without decoding the payload. Strings that
// are not data URLs report DefaultMediaType.
func MediaType(s string) string {
	if !IsDataURL(s) {
		return DefaultMediaType
	}
	rest := s[len(prefix):]
	header, _, ok := strings.Cut(rest, ",")
	if !ok {
		return DefaultMediaType
	}
	idx := strings.LastIndex(header, ";")
	if idx <= 0 {
		return DefaultMediaType
	}
	return header[:idx]
}

// IsDataURL reports whether s carries the data URL scheme.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, prefix)
}
