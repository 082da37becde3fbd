package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"brushup/internal/blob"
	"brushup/internal/cooldown"
	"brushup/internal/dataurl"
	"brushup/internal/errors"
	"brushup/internal/record"
	"brushup/internal/studio"
)

// maxUploadBytes bounds a single multipart submission (64 MiB).
const maxUploadBytes = 64 << 20

// providerOptions mirrors the model select of the UI.
var providerOptions = []ProviderOption{
	{ID: string(record.ProviderOpenAI), Name: "GPT Image"},
	{ID: string(record.ProviderGemini), Name: "Gemini Flash Image"},
}

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	studio          *studio.Studio
	blobs           *blob.Store
	renderer        *Renderer
	chime           *cooldown.Gate
	defaultProvider string

	// seenTerminal tracks which records have already been rendered in a
	// terminal state, so the completion chime fires once per settlement.
	mu           sync.Mutex
	seenTerminal map[string]bool
}

// NewHandlers creates the handler set.
func NewHandlers(st *studio.Studio, blobs *blob.Store, renderer *Renderer, chime *cooldown.Gate, defaultProvider string) *Handlers {
	return &Handlers{
		studio:          st,
		blobs:           blobs,
		renderer:        renderer,
		chime:           chime,
		defaultProvider: defaultProvider,
		seenTerminal:    make(map[string]bool),
	}
}

// HandleGallery handles GET / — the submit form plus history.
func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	records := h.studio.History().Snapshot()
	h.markTerminalSeen(records)

	h.renderer.renderPage(w, "gallery", GalleryPageData{
		PageData: PageData{
			Title:   "Brushup",
			Version: h.renderer.version,
		},
		Records:         records,
		Providers:       providerOptions,
		DefaultProvider: h.defaultProvider,
		HasPending:      h.studio.History().HasPending(),
	})
}

// HandleSubmit handles POST /images — a multipart submission with prompt
// text, provider choice, attached files, and optional references to uploaded
// blobs or previous results.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	sub := studio.Submission{
		Text:     r.FormValue("prompt"),
		Provider: record.Provider(r.FormValue("provider")),
	}

	// Attached files.
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["attachments"] {
			contentType := fh.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "image/") {
				h.renderer.renderError(w, r, errors.NewUnsupportedAttachment(contentType))
				return
			}
			f, err := fh.Open()
			if err != nil {
				h.renderer.renderError(w, r, errors.NewAttachmentUnreadable(fh.Filename, err))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				h.renderer.renderError(w, r, errors.NewAttachmentUnreadable(fh.Filename, err))
				return
			}
			sub.Attachments = append(sub.Attachments, studio.Attachment{
				Data:        data,
				ContentType: contentType,
				Filename:    fh.Filename,
			})
		}
	}

	// References to previously uploaded blobs (from /api/upload).
	for _, ref := range r.Form["attachment_refs"] {
		if ref = strings.TrimSpace(ref); ref != "" {
			sub.Attachments = append(sub.Attachments, studio.Attachment{Ref: ref})
		}
	}

	// Re-edit: feed a previous result back in as a source image.
	if sourceID := r.FormValue("source_record"); sourceID != "" {
		att, err := h.attachmentFromRecord(sourceID)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		sub.Attachments = append(sub.Attachments, att)
	}

	pending, err := h.studio.Submit(r.Context(), sub)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	_ = pending // empty submissions fall through: nothing recorded

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// attachmentFromRecord resolves a record's result image into submission bytes.
func (h *Handlers) attachmentFromRecord(id string) (studio.Attachment, error) {
	rec, ok := h.studio.History().Get(id)
	if !ok || rec.ResultImage == "" {
		return studio.Attachment{}, errors.NewNotFound(id)
	}
	mediaType, data, err := dataurl.Decode(rec.ResultImage)
	if err != nil {
		return studio.Attachment{}, errors.NewAttachmentUnreadable(id, err)
	}
	return studio.Attachment{Data: data, ContentType: mediaType}, nil
}

// HandleHistoryFragment handles GET /images/fragment — the history block the
// gallery polls while records are pending. The completion chime is attached
// at most once per settlement and is rate-limited by the cooldown gate.
func (h *Handlers) HandleHistoryFragment(w http.ResponseWriter, r *http.Request) {
	records := h.studio.History().Snapshot()
	celebrate := h.newlySucceeded(records) && h.chime.Allow()

	h.renderer.renderBlock(w, http.StatusOK, "gallery", "history", GalleryPageData{
		Records:    records,
		HasPending: h.studio.History().HasPending(),
		Celebrate:  celebrate,
	})
}

// newlySucceeded reports whether any record settled to succeeded since the
// last render, and marks all terminal records as seen.
func (h *Handlers) newlySucceeded(records []*record.Record) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	fresh := false
	for _, rec := range records {
		if !rec.State.Terminal() || h.seenTerminal[rec.ID] {
			continue
		}
		h.seenTerminal[rec.ID] = true
		if rec.State == record.StateSucceeded {
			fresh = true
		}
	}
	return fresh
}

// markTerminalSeen records already-terminal entries without celebrating, so a
// full page load doesn't replay the chime for old history.
func (h *Handlers) markTerminalSeen(records []*record.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range records {
		if rec.State.Terminal() {
			h.seenTerminal[rec.ID] = true
		}
	}
}

// forgetSeen drops the chime bookkeeping for a removed record so the map does
// not grow for the lifetime of the server.
func (h *Handlers) forgetSeen(id string) {
	h.mu.Lock()
	delete(h.seenTerminal, id)
	h.mu.Unlock()
}

func (h *Handlers) resetSeen() {
	h.mu.Lock()
	h.seenTerminal = make(map[string]bool)
	h.mu.Unlock()
}

// HandleUpload handles POST /api/upload — the attachment upload boundary.
// Stores the file and returns a durable reference for a later submission.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("no file provided"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.renderer.renderError(w, r, errors.NewUnsupportedAttachment(contentType))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewAttachmentUnreadable(header.Filename, err))
		return
	}

	name, err := h.blobs.Put(header.Filename, data)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"url":         "/blobs/" + name,
		"filename":    header.Filename,
		"size":        len(data),
		"contentType": contentType,
	})
}

// HandleBlob handles GET /blobs/{name} — serves an uploaded attachment.
func (h *Handlers) HandleBlob(w http.ResponseWriter, r *http.Request) {
	data, err := h.blobs.Get(r.PathValue("name"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewNotFound(r.PathValue("name")))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

// HandleResult handles GET /images/{id}/result — the decoded result image,
// served for download.
func (h *Handlers) HandleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := h.studio.History().Get(id)
	if !ok || rec.ResultImage == "" {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	mediaType, data, err := dataurl.Decode(rec.ResultImage)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "generated-image-"+id+".png"))
	_, _ = w.Write(data)
}

// HandleDelete handles DELETE /images/{id} and POST /images/{id}/delete.
// Removal is immediate; deleting a pending record abandons its outcome.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("record ID is required"))
		return
	}

	if err := h.studio.Delete(id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.forgetSeen(id)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleClear handles POST /images/clear — removes all history. The
// destructive step requires confirm=true; the user-facing confirmation
// dialog lives in the page, not here.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	if err := h.studio.Clear(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.resetSeen()

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"cleared": true})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
