// Package source obtains full copies of source videos: one cached
// full-resolution file per source id, fetched through a preference-ordered
// chain of resolvers with graceful skip on failure.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/media"
)

// ErrChallenge marks a resolver that demands an interactive bot challenge.
// The chain skips such resolvers instead of failing the whole resolution.
var ErrChallenge = errors.New("resolver requires interactive challenge")

// Resolver turns an opaque video id into a fetchable direct media URL.
type Resolver interface {
	Name() string
	ResolveURL(ctx context.Context, sourceID string) (string, error)
}

// ClientResolver is the primary resolver, using the YouTube innertube API.
type ClientResolver struct {
	client *youtube.Client
}

// NewClientResolver creates the primary resolver.
func NewClientResolver() *ClientResolver {
	return &ClientResolver{client: &youtube.Client{}}
}

func (r *ClientResolver) Name() string { return "youtube" }

// ResolveURL picks the best progressive mp4 format that carries audio.
func (r *ClientResolver) ResolveURL(ctx context.Context, sourceID string) (string, error) {
	video, err := r.client.GetVideoContext(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("get video %s: %w", sourceID, err)
	}

	formats := video.Formats.WithAudioChannels()
	formats.Sort()

	for i := range formats {
		if strings.Contains(formats[i].MimeType, "video/mp4") {
			url, err := r.client.GetStreamURLContext(ctx, video, &formats[i])
			if err != nil {
				return "", fmt.Errorf("stream url for %s: %w", sourceID, err)
			}
			return url, nil
		}
	}

	return "", fmt.Errorf("no progressive mp4 format for %s", sourceID)
}

// AltResolver queries an alternate public resolver endpoint (Invidious-style
// JSON API). Endpoints known to gate downloads behind an interactive
// challenge report ErrChallenge so the chain can skip them.
type AltResolver struct {
	name       string
	endpoint   string
	challenge  bool
	httpClient *http.Client
}

// NewAltResolver creates a resolver against one alternate endpoint.
func NewAltResolver(name, endpoint string, requiresChallenge bool) *AltResolver {
	return &AltResolver{
		name:       name,
		endpoint:   strings.TrimRight(endpoint, "/"),
		challenge:  requiresChallenge,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *AltResolver) Name() string { return r.name }

type altVideoResponse struct {
	FormatStreams []struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"formatStreams"`
}

func (r *AltResolver) ResolveURL(ctx context.Context, sourceID string) (string, error) {
	if r.challenge {
		return "", ErrChallenge
	}

	url := fmt.Sprintf("%s/api/v1/videos/%s", r.endpoint, sourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		// Typical signature of a bot gate on public instances
		return "", ErrChallenge
	default:
		return "", fmt.Errorf("%s returned %d", r.name, resp.StatusCode)
	}

	var body altVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode %s response: %w", r.name, err)
	}

	for _, f := range body.FormatStreams {
		if strings.Contains(f.Type, "video/mp4") {
			return f.URL, nil
		}
	}
	return "", fmt.Errorf("no mp4 stream from %s", r.name)
}

// Chain tries resolvers in preference order, skipping challenge-gated ones
// and logging each failure before moving on.
type Chain struct {
	logger    zerolog.Logger
	resolvers []Resolver
}

// NewChain builds a resolver chain in the given preference order.
func NewChain(logger zerolog.Logger, resolvers ...Resolver) *Chain {
	return &Chain{
		logger:    logger.With().Str("component", "resolver").Logger(),
		resolvers: resolvers,
	}
}

// ResolveURL returns the first resolver's URL, falling through on failure.
// A FetchError is returned only when every resolver has failed.
func (c *Chain) ResolveURL(ctx context.Context, sourceID string) (string, error) {
	var lastErr error
	for _, r := range c.resolvers {
		url, err := r.ResolveURL(ctx, sourceID)
		if err == nil {
			c.logger.Debug().Str("resolver", r.Name()).Str("source", sourceID).Msg("resolved direct url")
			return url, nil
		}
		if errors.Is(err, ErrChallenge) {
			c.logger.Warn().Str("resolver", r.Name()).Msg("resolver gated by interactive challenge, skipping")
		} else {
			c.logger.Warn().Str("resolver", r.Name()).Err(err).Msg("resolver failed, trying next")
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no resolvers configured")
	}
	return "", &media.FetchError{SourceID: sourceID, Err: lastErr}
}
