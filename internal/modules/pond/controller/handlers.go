package controller

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"duckwatch/internal/modules/pond/views"
	"duckwatch/internal/utils"
)

func (c *pondControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	ponds, err := c.service.Ponds(r.Context())
	if err != nil {
		slog.Error("index: list ponds failed", "error", err)
		c.writeUnavailablePage(w)
		return
	}
	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, &views.IndexData{Ponds: ponds}); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *pondControllerImpl) handleToday(w http.ResponseWriter, r *http.Request) {
	pondID, err := parsePondQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := c.service.Status(r.Context(), pondID)
	var buf bytes.Buffer
	code := statusCodeFor(err)
	switch code {
	case http.StatusOK:
		err = views.RenderToday(&buf, &view)
	case http.StatusNotFound:
		slog.Info("today: unknown pond", "pond_id", pondID)
		err = views.RenderNotFound(&buf, &views.NotFoundData{PondID: pondID})
	default:
		c.writeUnavailablePage(w)
		return
	}
	if err != nil {
		slog.Error("today template render failed", "pond_id", pondID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, code, buf.Bytes())
}

func (c *pondControllerImpl) handlePonds(w http.ResponseWriter, r *http.Request) {
	ponds, err := c.service.Ponds(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "pond store unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, ponds)
}

func (c *pondControllerImpl) handleStatus(w http.ResponseWriter, r *http.Request) {
	pondID := strings.TrimSpace(r.PathValue("id"))
	if pondID == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing pond id")
		return
	}

	view, err := c.service.Status(r.Context(), pondID)
	switch code := statusCodeFor(err); code {
	case http.StatusOK:
		utils.WriteJSON(w, http.StatusOK, view)
	case http.StatusNotFound:
		utils.WriteError(w, code, "pond not found: "+pondID)
	default:
		utils.WriteError(w, code, "pond store unavailable")
	}
}

// writeUnavailablePage reports a store failure without any partial content.
func (c *pondControllerImpl) writeUnavailablePage(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := views.RenderUnavailable(&buf); err != nil {
		slog.Error("unavailable template render failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "Database Unavailable")
		return
	}
	utils.WriteHTML(w, http.StatusServiceUnavailable, buf.Bytes())
}
