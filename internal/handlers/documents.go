package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/services"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
	"github.com/gorilla/mux"
)

type DocumentHandler struct {
	responder
	service     services.DocumentService
	maxFileSize int64
}

func NewDocumentHandler(service services.DocumentService, maxFileSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		responder:   responder{logger: logger},
		service:     service,
		maxFileSize: maxFileSize,
	}
}

// UploadObject stores the raw request body under {bucket}/{path}.
func (h *DocumentHandler) UploadObject(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	// Check Content-Length first to reject oversized requests early
	if r.ContentLength > h.maxFileSize {
		h.respondError(w, utils.NewBadRequestError("File size exceeds upload limit"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, h.maxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("Failed to read file"))
		return
	}

	vars := mux.Vars(r)
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key, err := h.service.UploadObject(r.Context(), user, vars["bucket"], vars["path"], data, contentType)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]string{"bucket": vars["bucket"], "path": key})
}

// DownloadObject streams an object back to its owner.
func (h *DocumentHandler) DownloadObject(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	vars := mux.Vars(r)
	data, err := h.service.DownloadObject(r.Context(), user, vars["bucket"], vars["path"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write object", "error", err)
	}
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req models.NewDocumentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	doc, err := h.service.CreateDocument(r.Context(), user, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var patch models.DocumentPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		h.respondError(w, err)
		return
	}

	doc, err := h.service.UpdateDocument(r.Context(), user, mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	doc, err := h.service.GetDocument(r.Context(), user, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), user)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, docs)
}
