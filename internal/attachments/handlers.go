package attachments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	lederrors "vendor-ledger-service/pkg/errors"
	"vendor-ledger-service/pkg/logger"

	"github.com/gorilla/mux"
)

// MaxUploadBytes caps a single attachment upload.
const MaxUploadBytes = 10 << 20 // 10 MiB

// Handler serves the attachment panel endpoints.
type Handler struct {
	store Store
	log   logger.Logger
}

// NewHandler creates a Handler over a Store.
func NewHandler(store Store) *Handler {
	return &Handler{
		store: store,
		log:   logger.WithComponent("attachments"),
	}
}

// Register mounts the attachment routes on the router. All routes are scoped
// under the vendor name; a nil store mounts nothing, leaving the panel
// offline.
func (h *Handler) Register(r *mux.Router) {
	if h.store == nil {
		return
	}
	r.HandleFunc("/api/vendors/{vendor}/files", h.listFiles).Methods(http.MethodGet)
	r.HandleFunc("/api/vendors/{vendor}/files", h.uploadFile).Methods(http.MethodPost)
	r.HandleFunc("/api/vendors/{vendor}/files/{id}/download", h.downloadFile).Methods(http.MethodGet)
	r.HandleFunc("/api/vendors/{vendor}/files/{id}", h.deleteFile).Methods(http.MethodDelete)
	r.HandleFunc("/api/vendors/{vendor}/comments", h.listComments).Methods(http.MethodGet)
	r.HandleFunc("/api/vendors/{vendor}/comments", h.addComment).Methods(http.MethodPost)
	r.HandleFunc("/api/vendors/{vendor}/comments/{id}", h.deleteComment).Methods(http.MethodDelete)
}

// vendorName pulls the vendor path segment, tolerating percent-encoding of
// spaces and punctuation in vendor names.
func vendorName(r *http.Request) string {
	raw := mux.Vars(r)["vendor"]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	vendor := vendorName(r)
	files, err := h.store.ListFiles(r.Context(), vendor)
	if err != nil {
		h.storageFailure(w, "list files", err)
		return
	}
	if files == nil {
		files = []*VendorFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	vendor := vendorName(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d MB upload limit", MaxUploadBytes>>20))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart form must carry a 'file' part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d MB upload limit", MaxUploadBytes>>20))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	stored, err := h.store.AddFile(r.Context(), vendor, header.Filename, mimeType, data)
	if err != nil {
		h.storageFailure(w, "upload file", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, data, err := h.store.GetFile(r.Context(), id)
	if err != nil {
		if le, ok := lederrors.AsLedgerError(err); ok && le.Code == lederrors.CodeNotFound {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.storageFailure(w, "download file", err)
		return
	}
	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", sanitizeFilename(meta.Filename)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteFile(r.Context(), id); err != nil {
		h.storageFailure(w, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	vendor := vendorName(r)
	comments, err := h.store.ListComments(r.Context(), vendor)
	if err != nil {
		h.storageFailure(w, "list comments", err)
		return
	}
	if comments == nil {
		comments = []*VendorComment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	vendor := vendorName(r)

	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a 'comment' field")
		return
	}
	if strings.TrimSpace(body.Comment) == "" {
		writeError(w, http.StatusBadRequest, "comment must not be empty")
		return
	}

	stored, err := h.store.AddComment(r.Context(), vendor, body.Comment)
	if err != nil {
		h.storageFailure(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteComment(r.Context(), id); err != nil {
		h.storageFailure(w, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storageFailure logs the underlying error and reports the panel as offline.
// Dashboard endpoints never route through here, so a storage outage stays
// confined to the attachment UI.
func (h *Handler) storageFailure(w http.ResponseWriter, operation string, err error) {
	h.log.WithError(err).Errorf("storage failure during %s", operation)
	writeError(w, http.StatusServiceUnavailable, "attachment storage is unavailable")
}

// sanitizeFilename strips characters that would break the Content-Disposition
// header.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	if name == "" {
		return "download"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
