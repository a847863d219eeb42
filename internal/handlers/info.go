package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const serviceName = "webservice-umg"

type HealthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
}

type TimeResponse struct {
	UTC time.Time `json:"utc"`
}

// InfoRouter registers the health and time endpoints.
func InfoRouter(r chi.Router) {
	r.Get("/health", Health)
	r.Get("/time", Time)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
		Time:    time.Now().UTC(),
	})
}

func Time(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TimeResponse{UTC: time.Now().UTC()})
}
