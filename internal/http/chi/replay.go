package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/replay"
)

type replayResponse struct {
	Replay replayResultResponse `json:"replay"`
}

// postReplay handles POST /api/events/{id}/replay
func postReplay(eventService event.UseCase, replayService replay.UseCase, bodyLimit int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req replayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			// An unknown event is reported before a malformed request
			if _, getErr := eventService.Get(r.Context(), id); errors.Is(getErr, event.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Event not found")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, err := replayService.Replay(r.Context(), id, replay.Request{
			TargetURL:              req.TargetURL,
			Target:                 req.Target,
			IncludeOriginalHeaders: req.IncludeOriginalHeaders,
			AdditionalHeaders:      req.AdditionalHeaders,
		})
		if err != nil {
			var verr *replay.ValidationError
			var terr *replay.TransportError
			switch {
			case errors.Is(err, event.ErrNotFound):
				writeError(w, http.StatusNotFound, "Event not found")
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, verr.Error())
			case errors.As(err, &terr):
				logger := httplog.LogEntry(r.Context())
				logger.Error().Err(err).Str("event_id", id).Msg("replay target failed")
				writeError(w, http.StatusBadGateway, "Replay target failed")
			default:
				logger := httplog.LogEntry(r.Context())
				logger.Error().Err(err).Str("event_id", id).Msg("replaying event")
				writeError(w, http.StatusInternalServerError, "Replay failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, replayResponse{Replay: newReplayResultResponse(result, bodyLimit)})
	})
}
