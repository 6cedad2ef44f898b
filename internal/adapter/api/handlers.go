package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

type handler struct {
	store  Store
	logger *slog.Logger
}

type errorResponse struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type statsResponse struct {
	Time        string                  `json:"time"`
	Parameters  []string                `json:"parameters"`
	Territories []domain.TerritoryCount `json:"territories"`
}

func (h *handler) listDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.ListDates(r.Context())
	if err != nil {
		h.queryFailed(w, "list dates", err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = domain.FormatTimestamp(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listStations(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "geojson" {
		writeError(w, http.StatusBadRequest, "unsupported format "+format+": use json or geojson")
		return
	}

	stations, err := h.store.ListStations(r.Context(), r.URL.Query().Get("territory"))
	if err != nil {
		h.queryFailed(w, "list stations", err)
		return
	}

	if format == "geojson" {
		writeJSON(w, http.StatusOK, domain.NewFeatureCollection(stations))
		return
	}
	if stations == nil {
		stations = []domain.Station{}
	}
	writeJSON(w, http.StatusOK, stations)
}

func (h *handler) stationStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawTime := q.Get("time")
	if rawTime == "" {
		writeError(w, http.StatusBadRequest, "time is required")
		return
	}
	t, err := domain.ParseTimestamp(rawTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var requested []string
	for _, p := range strings.Split(q.Get("params"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			requested = append(requested, p)
		}
	}
	params, err := domain.ValidateParameters(requested)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	counts, err := h.store.CountStationsByTerritory(r.Context(), t, params)
	if errors.Is(err, domain.ErrInvalidParameters) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.queryFailed(w, "count stations", err)
		return
	}
	if counts == nil {
		counts = []domain.TerritoryCount{}
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Time:        domain.FormatTimestamp(t),
		Parameters:  params,
		Territories: counts,
	})
}

func (h *handler) queryFailed(w http.ResponseWriter, op string, err error) {
	h.logger.Error("query failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Status: status, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
