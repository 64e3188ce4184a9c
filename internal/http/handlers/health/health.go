// Package health reports whether the service and its store are up.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/mentorqa-api/internal/utils/response"
)

// Pinger is the part of storage.Storage this handler needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type status struct {
	OK      bool   `json:"ok"`
	Storage string `json:"storage"`
	DBOk    bool   `json:"dbOk"`
}

// Get handles GET /api/health. It always answers 200 while the process
// serves requests; dbOk reports the store separately. The memory driver
// reports dbOk false, as it is not a database.
func Get(store Pinger, driver string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := status{OK: true, Storage: driver}

		if driver != "memory" {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				slog.Warn("health: storage ping failed", slog.String("error", err.Error()))
			} else {
				s.DBOk = true
			}
		}

		response.WriteJSON(w, http.StatusOK, s)
	}
}
