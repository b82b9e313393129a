package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/hours"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/UnknownOlympus/pharmacy-locator/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLookupsLimit = 20
	maxLookupsLimit     = 100
)

type hoursView struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Formatted string `json:"formatted"`
}

type pharmacyView struct {
	models.Pharmacy
	TodayHours hoursView `json:"todayHours"`
}

type snapshotResponse struct {
	Status     service.Status   `json:"status"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
	ErrorKind  models.ErrorKind `json:"errorKind,omitempty"`
	Address    *models.Address  `json:"address,omitempty"`
	Day        models.DayCode   `json:"day"`
	DayName    string           `json:"dayName"`
	Total      int              `json:"totalCount"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
	Pharmacies []pharmacyView   `json:"pharmacies"`
}

type dayHoursResponse struct {
	RNum    string         `json:"rnum"`
	Name    string         `json:"dutyName"`
	Day     models.DayCode `json:"day"`
	DayName string         `json:"dayName"`
	hoursView
}

type fetchRequest struct {
	Region    string `json:"region"`
	SubRegion string `json:"subRegion"`
}

func newHoursView(h models.Hours) hoursView {
	return hoursView{Start: h.Start, End: h.End, Formatted: hours.FormatHours(h)}
}

func newSnapshotResponse(snap service.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Status:     snap.Status,
		Loading:    snap.Loading,
		Error:      snap.Error,
		ErrorKind:  snap.ErrorKind,
		Address:    snap.Address,
		Day:        snap.Day,
		DayName:    snap.Day.Name(),
		Total:      snap.Total,
		Pharmacies: make([]pharmacyView, 0, len(snap.Pharmacies)),
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt
		resp.UpdatedAt = &updated
	}
	for _, p := range snap.Pharmacies {
		resp.Pharmacies = append(resp.Pharmacies, pharmacyView{
			Pharmacy:   p,
			TodayHours: newHoursView(hours.Resolve(p, snap.Day)),
		})
	}
	return resp
}

func (h *Handler) snapshotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(h.log, w, http.StatusOK, newSnapshotResponse(h.lookup.Snapshot()))
	}
}

func (h *Handler) cycleHandler(run func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.finishCycle(w, run(r.Context()))
	}
}

func (h *Handler) fetchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(h.log, w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Region = strings.TrimSpace(req.Region)
		req.SubRegion = strings.TrimSpace(req.SubRegion)
		if req.Region == "" || req.SubRegion == "" {
			writeError(h.log, w, http.StatusBadRequest, "region and subRegion are required")
			return
		}

		h.finishCycle(w, h.lookup.Fetch(r.Context(), req.Region, req.SubRegion))
	}
}

func (h *Handler) finishCycle(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrLookupInProgress) {
		writeError(h.log, w, http.StatusConflict, err.Error())
		return
	}

	resp := newSnapshotResponse(h.lookup.Snapshot())
	status := http.StatusOK
	if err != nil {
		status = statusForKind(models.KindOf(err))
	}
	WriteJSON(h.log, w, status, resp)
}

func (h *Handler) hoursHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rnum := chi.URLParam(r, "rnum")
		pharmacy, ok := h.lookup.Pharmacy(rnum)
		if !ok {
			writeError(h.log, w, http.StatusNotFound, "pharmacy not found")
			return
		}

		day := h.lookup.Today()
		if raw := r.URL.Query().Get("day"); raw != "" {
			parsed, err := models.ParseDayCode(strings.ToLower(raw))
			if err != nil {
				writeError(h.log, w, http.StatusBadRequest, err.Error())
				return
			}
			day = parsed
		}

		WriteJSON(h.log, w, http.StatusOK, dayHoursResponse{
			RNum:      pharmacy.RNum,
			Name:      pharmacy.Name,
			Day:       day,
			DayName:   day.Name(),
			hoursView: newHoursView(hours.Resolve(pharmacy, day)),
		})
	}
}

func (h *Handler) lookupsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.journal == nil {
			writeError(h.log, w, http.StatusNotFound, "lookup journal is not configured")
			return
		}

		limit := defaultLookupsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(h.log, w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(parsed, maxLookupsLimit)
		}

		entries, err := h.journal.RecentLookups(r.Context(), limit)
		if err != nil {
			h.log.ErrorContext(r.Context(), "Failed to read lookup journal", "error", err)
			writeError(h.log, w, http.StatusInternalServerError, "failed to read lookup journal")
			return
		}

		WriteJSON(h.log, w, http.StatusOK, entries)
	}
}
