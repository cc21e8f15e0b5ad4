package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/venue"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", processHandler(cfg))

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", listQueueHandler(cfg))
			r.Post("/", mergeQueueHandler(cfg))
			r.Post("/process", processQueueHandler(cfg))
			r.Post("/reorder", reorderHandler(cfg))
			r.Delete("/completed", clearCompletedHandler(cfg))
			r.Patch("/{id}", patchItemHandler(cfg))
			r.Delete("/{id}", deleteItemHandler(cfg))
		})

		r.Get("/auth/status", authStatusHandler(cfg))
		r.Post("/videos/{id}/title", setTitleHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

// processHandler runs one segment synchronously and returns its artifact
// path. The heavy lifting may take minutes; the write timeout is disabled
// for that reason.
func processHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.VideoID == "" {
			WriteError(w, http.StatusBadRequest, "videoId is required", "BAD_REQUEST")
			return
		}
		if req.EndTime <= req.StartTime {
			WriteError(w, http.StatusBadRequest, "endTime must exceed startTime", "BAD_REQUEST")
			return
		}

		result, err := cfg.Segments.Process(r.Context(), venue.Request{
			SourceID:    req.VideoID,
			Start:       req.StartTime,
			End:         req.EndTime,
			OverlayText: req.OverlayText,
			ForceClient: req.ForceClient,
		}, nil)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "PROCESSING_FAILED")
			return
		}

		WriteJSON(w, http.StatusOK, ProcessResponse{
			Path:   result.Path,
			Venue:  result.Venue,
			Cached: result.Cached,
		})
	}
}

func listQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, QueueResponse{Items: cfg.Queue.Items()})
	}
}

func mergeQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MergeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		added := cfg.Queue.MergeRemote(req.Items)
		WriteJSON(w, http.StatusOK, MergeResponse{Added: added})
	}
}

// processQueueHandler kicks a batch off in the background and returns
// immediately; progress is visible through queue item statuses.
func processQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Batch == nil {
			WriteError(w, http.StatusServiceUnavailable, "batch processing not configured", "NOT_CONFIGURED")
			return
		}

		// The request context dies with the response; the batch must not.
		go func() {
			if err := cfg.Batch.ProcessAll(context.Background()); err != nil {
				cfg.Logger.Error().Err(err).Msg("queue batch failed")
			}
		}()

		w.WriteHeader(http.StatusAccepted)
	}
}

func reorderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Queue.Reorder(req.From, req.To); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, QueueResponse{Items: cfg.Queue.Items()})
	}
}

func clearCompletedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ClearedResponse{Removed: cfg.Queue.ClearCompleted()})
	}
}

func patchItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req QueuePatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		patch := queue.Patch{Error: req.Error}
		if req.Status != nil {
			status := queue.Status(*req.Status)
			switch status {
			case queue.StatusPending, queue.StatusProcessing, queue.StatusRendered,
				queue.StatusUploading, queue.StatusCompleted, queue.StatusError:
			default:
				WriteError(w, http.StatusBadRequest, "unknown status", "BAD_REQUEST")
				return
			}
			patch.Status = &status
		}

		item, err := cfg.Queue.Update(id, patch)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, item)
	}
}

func deleteItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !cfg.Queue.Remove(id) {
			WriteError(w, http.StatusNotFound, "queue item not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func authStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated := cfg.Auth != nil && cfg.Auth.Authenticated()
		WriteJSON(w, http.StatusOK, AuthStatusResponse{Authenticated: authenticated})
	}
}

// setTitleHandler stores a video title override. A changed title shifts the
// default overlay text of every segment, so all cached segments for the
// source are invalidated.
func setTitleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "id")
		var req TitleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		changed, err := cfg.Store.SetTitleOverride(videoID, req.Title)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		invalidated := 0
		if changed && cfg.Cache != nil {
			invalidated, err = cfg.Cache.Invalidate(videoID)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
		}

		WriteJSON(w, http.StatusOK, TitleResponse{Changed: changed, Invalidated: invalidated})
	}
}
