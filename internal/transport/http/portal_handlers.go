package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lumina/internal/contract"
	dErrors "lumina/pkg/domain-errors"
	"lumina/pkg/platform/httputil"
)

func portalToken(r *http.Request) string {
	return chi.URLParam(r, "token")
}

func (h *Handler) portalSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.portal.Resolve(r.Context(), portalToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := portalSnapshotResponse{
		State:    string(snap.State),
		Response: toResponseEnvelope(snap.Response),
		Gallery:  toGalleryResponse(snap.Gallery, nil),
	}
	if snap.EventType != nil {
		et := toEventTypeResponse(snap.EventType)
		resp.EventType = &et
	}
	// Draft contracts are a provider concern; the portal only learns about
	// a contract once it is awaiting signature.
	if snap.Contract != nil && snap.Contract.Status != contract.StatusDraft {
		resp.Contract = toContractResponse(snap.Contract, false)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func portalEventTypeID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "eventTypeID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid event type id")
	}
	return id, nil
}

func (h *Handler) portalQuestionnaire(w http.ResponseWriter, r *http.Request) {
	eventTypeID, err := portalEventTypeID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventType, response, err := h.portal.Questionnaire(r.Context(), portalToken(r), eventTypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	et := toEventTypeResponse(eventType)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"event_type": et,
		"response":   toResponseEnvelope(response),
	})
}

func (h *Handler) portalSaveQuestionnaire(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[saveQuestionnaireRequest](w, r, h.logger)
	if !ok {
		return
	}
	eventTypeID, err := portalEventTypeID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	response, err := h.portal.SaveQuestionnaire(r.Context(), portalToken(r), &eventTypeID, req.Answers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseEnvelope(response))
}

func (h *Handler) portalValidateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[validateQuestionnaireRequest](w, r, h.logger)
	if !ok {
		return
	}
	eventTypeID, err := portalEventTypeID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	response, err := h.portal.ValidateQuestionnaire(r.Context(), portalToken(r), &eventTypeID, req.Answers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseEnvelope(response))
}

func (h *Handler) portalContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.portal.Contract(r.Context(), portalToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(c, true))
}

func (h *Handler) portalContractPDF(w http.ResponseWriter, r *http.Request) {
	c, content, err := h.portal.ContractPDF(r.Context(), portalToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePDF(w, fmt.Sprintf("contract_v%d.pdf", c.Version), content)
}

func (h *Handler) portalSign(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[signRequest](w, r, h.logger)
	if !ok {
		return
	}
	rec, err := h.portal.Sign(r.Context(), portalToken(r), req.SignatureImage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSignatureResponse(rec))
}

func (h *Handler) portalGallery(w http.ResponseWriter, r *http.Request) {
	g, photos, err := h.portal.Gallery(r.Context(), portalToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGalleryResponse(g, photos))
}

func (h *Handler) portalPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuid.Parse(chi.URLParam(r, "photoID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid photo id"))
		return
	}
	photo, content, err := h.portal.Photo(r.Context(), portalToken(r), photoID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", photo.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) portalExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.portal.ExportData(r.Context(), portalToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := map[string]any{
		"state":         string(export.State),
		"questionnaire": toResponseEnvelope(export.Response),
		"contract":      toContractResponse(export.Contract, true),
		"audit_trail":   toAuditResponse(export.AuditTrail),
	}
	signatures := make([]signatureResponse, 0, len(export.Signatures))
	for _, rec := range export.Signatures {
		signatures = append(signatures, toSignatureResponse(rec))
	}
	resp["signatures"] = signatures
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func writePDF(w http.ResponseWriter, fileName string, content []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
