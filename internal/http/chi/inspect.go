package chi

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/httplog"
	hookredis "github.com/marcelsud/hookwatch/event/redis"
	"github.com/marcelsud/hookwatch/metrics"
	"github.com/marcelsud/hookwatch/targets"
)

const defaultActivityCount = 50

// TargetLister lists configured replay targets; *targets.Loader satisfies it
type TargetLister interface {
	List() []*targets.Target
}

// ActivityReader reads recent stream activity; *redis.Publisher satisfies it
type ActivityReader interface {
	Recent(ctx context.Context, count int64) ([]hookredis.Activity, error)
}

type targetsResponse struct {
	Items []targetResponse `json:"items"`
}

type activityResponse struct {
	Enabled bool                 `json:"enabled"`
	Items   []hookredis.Activity `json:"items"`
}

// getTargets handles GET /api/targets; header values and secrets are never exposed
func getTargets(lister TargetLister) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []targetResponse{}
		if lister != nil {
			for _, t := range lister.List() {
				names := make([]string, 0, len(t.Headers))
				for name := range t.Headers {
					names = append(names, name)
				}
				sort.Strings(names)
				items = append(items, targetResponse{
					Name:                   t.Name,
					URL:                    t.URL,
					IncludeOriginalHeaders: t.IncludeOriginalHeaders,
					HeaderNames:            names,
					Signed:                 t.Signed(),
				})
			}
		}
		writeJSON(w, http.StatusOK, targetsResponse{Items: items})
	})
}

// getStats handles GET /api/stats
func getStats(collector metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := collector.Collect(r.Context())
		if err != nil {
			logger := httplog.LogEntry(r.Context())
			logger.Error().Err(err).Msg("collecting metrics")
			writeError(w, http.StatusInternalServerError, "Failed to collect metrics")
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}

// getActivity handles GET /api/activity?count=
func getActivity(reader ActivityReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			writeJSON(w, http.StatusOK, activityResponse{Enabled: false, Items: []hookredis.Activity{}})
			return
		}

		count := int64(defaultActivityCount)
		if raw := r.URL.Query().Get("count"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "count must be a positive integer")
				return
			}
			count = n
		}

		items, err := reader.Recent(r.Context(), count)
		if err != nil {
			logger := httplog.LogEntry(r.Context())
			logger.Error().Err(err).Msg("reading activity")
			writeError(w, http.StatusBadGateway, "Activity stream unavailable")
			return
		}
		writeJSON(w, http.StatusOK, activityResponse{Enabled: true, Items: items})
	})
}
