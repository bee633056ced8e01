package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/services"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

type FunctionHandler struct {
	responder
	service services.FunctionService
}

func NewFunctionHandler(service services.FunctionService, logger *utils.Logger) *FunctionHandler {
	return &FunctionHandler{responder: responder{logger: logger}, service: service}
}

func (h *FunctionHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.ProcessDocument(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *FunctionHandler) ChatAssistant(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.ChatAssistant(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *FunctionHandler) TranslateText(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.TranslateText(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}
