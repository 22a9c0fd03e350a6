// Package artwork downloads catalog posters and inlines them as data URIs.
package artwork

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
)

var (
	ErrNoPoster        = errors.New("show has no poster")
	ErrTranscodeFailed = errors.New("poster transcode failed")
)

// Transcoder fetches poster images from the catalog's banner host.
type Transcoder struct {
	config     config.ArtworkConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTranscoder creates a new Transcoder.
func NewTranscoder(cfg config.ArtworkConfig, logger zerolog.Logger) *Transcoder {
	return &Transcoder{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger.With().Str("component", "artwork").Logger(),
	}
}

// FetchAndEncode downloads {bannerURL}/{posterPath} and returns it as
// "data:<mime>;base64,<payload>".
func (t *Transcoder) FetchAndEncode(ctx context.Context, posterPath string) (string, error) {
	posterPath = strings.TrimLeft(strings.TrimSpace(posterPath), "/")
	if posterPath == "" {
		return "", ErrNoPoster
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(t.config.BannerURL, "/"), posterPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn().Err(err).Str("url", url).Msg("Poster download failed")
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("Poster download failed")
		return "", fmt.Errorf("%w: status %d", ErrTranscodeFailed, resp.StatusCode)
	}

	body, err := t.readLimited(resp.Body)
	if err != nil {
		t.logger.Warn().Err(err).Str("url", url).Msg("Failed to read poster")
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	contentType := resolveContentType(resp.Header.Get("Content-Type"), body)
	encoded := EncodeDataURI(contentType, body)

	t.logger.Debug().
		Str("url", url).
		Str("contentType", contentType).
		Int("bytes", len(body)).
		Msg("Poster transcoded")

	return encoded, nil
}

func (t *Transcoder) readLimited(r io.Reader) ([]byte, error) {
	limit := t.config.MaxBytes
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("poster exceeds %d bytes", limit)
	}
	return body, nil
}

// EncodeDataURI formats bytes as a base64 data URI.
func EncodeDataURI(contentType string, body []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// resolveContentType keeps the server's type unless it is missing or generic,
// in which case the bytes are sniffed.
func resolveContentType(header string, body []byte) string {
	if header != "" {
		mediaType, _, err := mime.ParseMediaType(header)
		if err == nil && mediaType != "application/octet-stream" && mediaType != "binary/octet-stream" {
			return header
		}
	}
	return mimetype.Detect(body).String()
}
