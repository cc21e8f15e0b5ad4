package api

import "github.com/ombresaco/shortsmaker/internal/queue"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ProcessRequest struct {
	VideoID     string  `json:"videoId"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	OverlayText string  `json:"overlayText"`
	ForceClient bool    `json:"forceClient"`
}

type ProcessResponse struct {
	Path   string `json:"path"`
	Venue  string `json:"venue"`
	Cached bool   `json:"cached"`
}

type QueueResponse struct {
	Items []queue.Item `json:"items"`
}

type MergeRequest struct {
	Items []queue.Item `json:"items"`
}

type MergeResponse struct {
	Added int `json:"added"`
}

type QueuePatchRequest struct {
	Status *string `json:"status,omitempty"`
	Error  *string `json:"error,omitempty"`
}

type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type ClearedResponse struct {
	Removed int `json:"removed"`
}

type AuthStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

type TitleResponse struct {
	Changed     bool `json:"changed"`
	Invalidated int  `json:"invalidated"`
}
