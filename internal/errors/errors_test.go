package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err        *BrushupError
		wantCode   ErrorCode
		wantStatus int
	}{
		{NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{NewNotFound("01A"), ErrNotFound, 404},
		{NewAttachmentUnreadable("ref", nil), ErrAttachmentUnreadable, 422},
		{NewUnsupportedAttachment("text/plain"), ErrUnsupportedAttachment, 415},
		{NewProviderFailed("no image"), ErrProviderFailed, 502},
		{NewInternal(nil), ErrInternal, 500},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.wantCode {
			t.Errorf("Code = %s, want %s", tc.err.Code, tc.wantCode)
		}
		if tc.err.Status != tc.wantStatus {
			t.Errorf("Status = %d, want %d", tc.err.Status, tc.wantStatus)
		}
	}
}

func TestError_Format(t *testing.T) {
	err := NewInvalidRequest("prompt is required")
	want := "INVALID_REQUEST: prompt is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("01A")
	if !Is(err, ErrNotFound) {
		t.Error("Is() = false, want true")
	}
	if Is(err, ErrInternal) {
		t.Error("Is() matched wrong code")
	}
	if Is(stderrors.New("plain"), ErrNotFound) {
		t.Error("Is() matched a plain error")
	}
}

func TestNewNotFound_Details(t *testing.T) {
	err := NewNotFound("01A")
	if err.Details["id"] != "01A" {
		t.Errorf("Details = %v, want id=01A", err.Details)
	}
}
