package studio

import (
	"context"
	"io"
	"net/http"
	"strings"

	"brushup/internal/dataurl"
	"brushup/internal/errors"
)

// maxAttachmentBytes bounds a single fetched attachment (32 MiB).
const maxAttachmentBytes = 32 << 20

// Attachment is one user-supplied source image. Either Data carries raw bytes
// (a multipart upload, a local file) or Ref names where to fetch them: a data
// URL, a previously uploaded blob ("/blobs/<name>" or the bare name), or an
// http(s) URL.
type Attachment struct {
	Ref         string
	Data        []byte
	ContentType string
	Filename    string
}

// materialize resolves every attachment to a durable data URL. Ephemeral
// references never survive this step, so whatever is persisted afterwards is
// self-contained across a restart. Any unreadable source aborts the whole
// submission.
func (s *Studio) materialize(ctx context.Context, attachments []Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	out := make([]string, len(attachments))
	for i, a := range attachments {
		encoded, err := s.materializeOne(ctx, a)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

func (s *Studio) materializeOne(ctx context.Context, a Attachment) (string, error) {
	switch {
	case a.Data != nil:
		return encodeBytes(a.Data, a.ContentType), nil

	case dataurl.IsDataURL(a.Ref):
		// Re-encode so a malformed payload is caught here, not at dispatch.
		mediaType, data, err := dataurl.Decode(a.Ref)
		if err != nil {
			return "", errors.NewAttachmentUnreadable(truncateRef(a.Ref), err)
		}
		return dataurl.Encode(data, mediaType), nil

	case strings.HasPrefix(a.Ref, "http://"), strings.HasPrefix(a.Ref, "https://"):
		data, contentType, err := s.fetchRemote(ctx, a.Ref)
		if err != nil {
			return "", errors.NewAttachmentUnreadable(a.Ref, err)
		}
		return encodeBytes(data, contentType), nil

	case a.Ref != "":
		// Blob reference: "/blobs/<name>" or the bare blob name.
		if s.blobs == nil {
			return "", errors.NewAttachmentUnreadable(a.Ref, nil)
		}
		name := strings.TrimPrefix(a.Ref, "/blobs/")
		data, err := s.blobs.Get(name)
		if err != nil {
			return "", errors.NewAttachmentUnreadable(a.Ref, err)
		}
		return encodeBytes(data, a.ContentType), nil

	default:
		return "", errors.NewAttachmentUnreadable("", nil)
	}
}

func (s *Studio) fetchRemote(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.NewInvalidRequest("unexpected status " + resp.Status)
	}

	// Read one byte past the cap so an oversized body is an error, not a
	// silently truncated image.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxAttachmentBytes {
		return nil, "", errors.NewInvalidRequest("attachment exceeds the 32 MiB limit")
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// encodeBytes encodes raw bytes, sniffing the content type when the caller
// did not supply one.
func encodeBytes(data []byte, contentType string) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return dataurl.Encode(data, contentType)
}

// truncateRef keeps attachment error messages readable when the ref is a
// whole data URL.
func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
