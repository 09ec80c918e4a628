package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lumina/internal/contract"
	"lumina/internal/link"
	"lumina/internal/platform/requestcontext"
	"lumina/internal/questionnaire"
	"lumina/internal/workflow"
	dErrors "lumina/pkg/domain-errors"
	"lumina/pkg/platform/httputil"
)

const maxPhotoUploadBytes = 32 << 20

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}

// ownedLink resolves the linkID path parameter against the authenticated
// provider. Every provider-side link route goes through this check.
func (h *Handler) ownedLink(w http.ResponseWriter, r *http.Request) (*link.AccessLink, bool) {
	linkID, err := pathUUID(r, "linkID")
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	accessLink, err := h.links.Get(r.Context(), requestcontext.ProviderID(r.Context()), linkID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return accessLink, true
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[createLinkRequest](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.links.Create(r.Context(), link.CreateParams{
		ProviderID:    requestcontext.ProviderID(r.Context()),
		ClientID:      req.ClientID,
		ExpiresInDays: req.ExpiresInDays,
		EventTypeID:   req.EventTypeID,
		TemplateID:    req.TemplateID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLinkResponse(created))
}

func (h *Handler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.List(r.Context(), requestcontext.ProviderID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkResponse(l))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getLink(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLinkResponse(accessLink))
}

func (h *Handler) revokeLink(w http.ResponseWriter, r *http.Request) {
	linkID, err := pathUUID(r, "linkID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.links.Revoke(r.Context(), requestcontext.ProviderID(r.Context()), linkID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeClientLinks(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "clientID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	count, err := h.links.RevokeAllForClient(r.Context(), requestcontext.ProviderID(r.Context()), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"revoked": count})
}

func (h *Handler) updateExpiration(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[updateExpirationRequest](w, r, h.logger)
	if !ok {
		return
	}
	linkID, err := pathUUID(r, "linkID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.links.UpdateExpiration(r.Context(), requestcontext.ProviderID(r.Context()), linkID, req.Days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLinkResponse(updated))
}

func (h *Handler) linkWorkflow(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	response, err := h.questionnaires.GetResponseByLink(ctx, accessLink.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.contracts.Get(ctx, accessLink)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		httputil.WriteError(w, err)
		return
	}
	g, err := h.galleries.Get(ctx, accessLink)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"state":        string(workflow.DeriveProviderState(response, c, g)),
		"client_state": string(workflow.DeriveClientState(response, c, g)),
	})
}

func (h *Handler) linkAudit(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	entries, err := h.auditor.ExportForLink(r.Context(), accessLink.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(entries))
}

func (h *Handler) linkQuestionnaire(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	response, err := h.questionnaires.GetResponseByLink(r.Context(), accessLink.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if response == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no questionnaire response yet"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseEnvelope(response))
}

func (h *Handler) createEventType(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[eventTypeRequest](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.questionnaires.CreateEventType(r.Context(), requestcontext.ProviderID(r.Context()), req.Name, toQuestions(req.Questions))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEventTypeResponse(created))
}

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	eventTypes, err := h.questionnaires.ListEventTypes(r.Context(), requestcontext.ProviderID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]eventTypeResponse, 0, len(eventTypes))
	for _, e := range eventTypes {
		out = append(out, toEventTypeResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getEventType(w http.ResponseWriter, r *http.Request) {
	eventTypeID, err := pathUUID(r, "eventTypeID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventType, err := h.questionnaires.GetEventType(r.Context(), requestcontext.ProviderID(r.Context()), eventTypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventTypeResponse(eventType))
}

func (h *Handler) updateEventType(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[eventTypeRequest](w, r, h.logger)
	if !ok {
		return
	}
	eventTypeID, err := pathUUID(r, "eventTypeID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.questionnaires.UpdateEventType(r.Context(), requestcontext.ProviderID(r.Context()), eventTypeID, req.Name, toQuestions(req.Questions))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventTypeResponse(updated))
}

func (h *Handler) deleteEventType(w http.ResponseWriter, r *http.Request) {
	eventTypeID, err := pathUUID(r, "eventTypeID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.questionnaires.DeleteEventType(r.Context(), requestcontext.ProviderID(r.Context()), eventTypeID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toQuestions(payload []questionPayload) []questionnaire.Question {
	out := make([]questionnaire.Question, 0, len(payload))
	for _, q := range payload {
		out = append(out, questionnaire.Question{
			Key:      q.Key,
			Label:    q.Label,
			Type:     q.Type,
			Required: q.Required,
			Options:  q.Options,
		})
	}
	return out
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[templateRequest](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.templates.CreateTemplate(r.Context(), requestcontext.ProviderID(r.Context()), req.EventTypeID, req.Name, req.Body, req.Priority)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTemplateResponse(created))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ListTemplates(r.Context(), requestcontext.ProviderID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tmpl, err := h.templates.GetTemplate(r.Context(), requestcontext.ProviderID(r.Context()), templateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[templateRequest](w, r, h.logger)
	if !ok {
		return
	}
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.templates.UpdateTemplate(r.Context(), requestcontext.ProviderID(r.Context()), templateID, req.EventTypeID, req.Name, req.Body, req.Priority)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTemplateResponse(updated))
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.templates.DeleteTemplate(r.Context(), requestcontext.ProviderID(r.Context()), templateID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setVariable(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[customVariableRequest](w, r, h.logger)
	if !ok {
		return
	}
	v, err := h.templates.SetVariable(r.Context(), requestcontext.ProviderID(r.Context()), req.Key, req.DefaultValue)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVariableResponse(v))
}

func (h *Handler) listVariables(w http.ResponseWriter, r *http.Request) {
	variables, err := h.templates.ListVariables(r.Context(), requestcontext.ProviderID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]variableResponse, 0, len(variables))
	for _, v := range variables {
		out = append(out, toVariableResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteVariable(w http.ResponseWriter, r *http.Request) {
	variableID, err := pathUUID(r, "variableID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.templates.DeleteVariable(r.Context(), requestcontext.ProviderID(r.Context()), variableID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateContract(w http.ResponseWriter, r *http.Request) {
	var req generateContractRequest
	if r.ContentLength > 0 {
		decoded, ok := httputil.DecodeAndValidate[generateContractRequest](w, r, h.logger)
		if !ok {
			return
		}
		req = *decoded
	}
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	generated, err := h.contracts.Generate(r.Context(), accessLink, req.TemplateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toContractResponse(generated, true))
}

func (h *Handler) getContract(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	c, err := h.contracts.Get(r.Context(), accessLink)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(c, true))
}

func (h *Handler) updateContract(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[updateContractRequest](w, r, h.logger)
	if !ok {
		return
	}
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	updated, err := h.contracts.UpdateContent(r.Context(), accessLink, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(updated, true))
}

func (h *Handler) validateContract(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	validated, err := h.contracts.Validate(r.Context(), accessLink)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(validated, true))
}

func (h *Handler) contractPDF(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	c, err := h.contracts.Get(r.Context(), accessLink)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if c.FilePath == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not rendered yet"))
		return
	}
	content, err := h.files.Read(c.FilePath)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document"))
		return
	}
	name := fmt.Sprintf("contract_v%d.pdf", c.Version)
	if c.Status == contract.StatusSigned {
		name = "contract_signed.pdf"
	}
	writePDF(w, name, content)
}

func (h *Handler) contractSignatures(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	c, err := h.contracts.Get(r.Context(), accessLink)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.signatures.List(r.Context(), c.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]signatureResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toSignatureResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createGallery(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[createGalleryRequest](w, r, h.logger)
	if !ok {
		return
	}
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	g, err := h.galleries.Create(r.Context(), accessLink, req.Title)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toGalleryResponse(g, nil))
}

func (h *Handler) getGallery(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	g, err := h.galleries.Get(r.Context(), accessLink)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	photos, err := h.galleries.ListPhotos(r.Context(), g.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGalleryResponse(g, photos))
}

func (h *Handler) setGalleryVisibility(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[galleryVisibilityRequest](w, r, h.logger)
	if !ok {
		return
	}
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	g, err := h.galleries.SetVisibility(r.Context(), accessLink, req.Visible)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGalleryResponse(g, nil))
}

func (h *Handler) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing photo field"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxPhotoUploadBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read upload"))
		return
	}
	if len(content) > maxPhotoUploadBytes {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "photo exceeds the upload limit"))
		return
	}

	photo, err := h.galleries.UploadPhoto(r.Context(), accessLink, header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, photoResponse{
		ID:          photo.ID,
		FileName:    photo.FileName,
		ContentType: photo.ContentType,
		UploadedAt:  photo.UploadedAt,
	})
}

func (h *Handler) servePhoto(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	photoID, err := pathUUID(r, "photoID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	photo, content, err := h.galleries.ServePhoto(r.Context(), accessLink, photoID, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", photo.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) deletePhoto(w http.ResponseWriter, r *http.Request) {
	accessLink, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	photoID, err := pathUUID(r, "photoID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.galleries.DeletePhoto(r.Context(), accessLink, photoID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renderJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "jobID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.pool == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "render pool not running"))
		return
	}
	job, ok := h.pool.Job(jobID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "render job not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRenderJobResponse(job))
}
