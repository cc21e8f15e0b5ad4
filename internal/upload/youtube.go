// Package upload publishes rendered segments to YouTube.
package upload

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/ombresaco/shortsmaker/internal/media"
)

// Shorts are user-generated "People & Blogs" content.
const categoryPeopleBlogs = "22"

// Metadata describes one upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Privacy     string // private when empty
}

// Uploader publishes videos through the YouTube Data API.
type Uploader struct {
	logger zerolog.Logger
	tokens oauth2.TokenSource
}

// New creates an uploader over an OAuth token source. tokens may be nil when
// the user has not authenticated; Upload then fails fast.
func New(logger zerolog.Logger, tokens oauth2.TokenSource) *Uploader {
	return &Uploader{
		logger: logger.With().Str("component", "upload").Logger(),
		tokens: tokens,
	}
}

// Authenticated reports whether a usable credential is on hand.
func (u *Uploader) Authenticated() bool {
	if u.tokens == nil {
		return false
	}
	tok, err := u.tokens.Token()
	return err == nil && tok.Valid()
}

// Upload publishes the file at path and returns the watch URL.
func (u *Uploader) Upload(ctx context.Context, path string, meta Metadata) (string, error) {
	if u.tokens == nil {
		return "", &media.UploadError{Path: path, Err: fmt.Errorf("not authenticated")}
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(u.tokens))
	if err != nil {
		return "", &media.UploadError{Path: path, Err: fmt.Errorf("create service: %w", err)}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &media.UploadError{Path: path, Err: err}
	}
	defer f.Close()

	privacy := meta.Privacy
	if privacy == "" {
		privacy = "private"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  categoryPeopleBlogs,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			// The false declaration must go on the wire explicitly.
			ForceSendFields: []string{"SelfDeclaredMadeForKids"},
		},
	}

	u.logger.Info().Str("path", path).Str("title", meta.Title).Str("privacy", privacy).Msg("uploading segment")

	res, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Context(ctx).Do()
	if err != nil {
		return "", &media.UploadError{Path: path, Err: err}
	}

	url := "https://www.youtube.com/watch?v=" + res.Id
	u.logger.Info().Str("url", url).Msg("upload finished")
	return url, nil
}
