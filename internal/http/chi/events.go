package chi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/hookwatch/event"
)

type ingestResponse struct {
	ID       string `json:"id"`
	Received bool   `json:"received"`
}

type healthResponse struct {
	Status string `json:"status"`
	Events int    `json:"events"`
}

type listResponse struct {
	Items []eventResponse `json:"items"`
}

type itemResponse struct {
	Item eventResponse `json:"item"`
}

// getHealth handles GET /health
func getHealth(eventService event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status: "ok",
			Events: eventService.Count(r.Context()),
		})
	})
}

// ingest handles any method on /ingest/{source}
func ingest(eventService event.UseCase, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}

		ev, err := eventService.Capture(r.Context(), event.Capture{
			Source: chi.URLParam(r, "source"),
			Method: r.Method,
			Path:   r.URL.Path,
			Host:   r.Host,
			Query:  r.URL.Query(),
			Header: r.Header,
			Body:   body,
		})
		if err != nil {
			var verr *event.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Error())
				return
			}
			logger := httplog.LogEntry(r.Context())
			logger.Error().Err(err).Msg("capturing event")
			writeError(w, http.StatusInternalServerError, "Failed to capture event")
			return
		}

		writeJSON(w, http.StatusOK, ingestResponse{ID: ev.ID, Received: true})
	})
}

// listEvents handles GET /api/events?source=&search=
func listEvents(eventService event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all := eventService.List(r.Context(), event.Filter{
			Source: r.URL.Query().Get("source"),
			Search: r.URL.Query().Get("search"),
		})

		items := make([]eventResponse, 0, len(all))
		for _, ev := range all {
			items = append(items, newEventResponse(ev))
		}
		writeJSON(w, http.StatusOK, listResponse{Items: items})
	})
}

// getEvent handles GET /api/events/{id}
func getEvent(eventService event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ev, err := eventService.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, event.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, itemResponse{Item: newEventResponse(ev)})
	})
}

// clearEvents handles DELETE /api/events
func clearEvents(eventService event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventService.Clear(r.Context())
		writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
	})
}
