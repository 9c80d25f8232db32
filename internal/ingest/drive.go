package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/observability/metrics"
	"voice-assistant-client/internal/transport"
)

const defaultDriveBaseURL = "https://www.googleapis.com/drive/v3"

// DriveClient fetches drive file metadata and content with a bearer
// token. Acquiring the token is the caller's concern.
type DriveClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewDriveClient creates a drive content client.
func NewDriveClient() *DriveClient {
	return &DriveClient{
		baseURL: defaultDriveBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     logging.WithComponent("ingest.drive"),
		metrics: metrics.DefaultMetrics,
	}
}

// Metadata resolves a drive file id to its name and MIME type.
func (c *DriveClient) Metadata(ctx context.Context, token, id string) (models.FileRef, error) {
	u := fmt.Sprintf("%s/files/%s?fields=id,name,mimeType", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.FileRef{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.DriveFetchErrors.Inc()
		return models.FileRef{}, fmt.Errorf("metadata %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.DriveFetchErrors.Inc()
		return models.FileRef{}, fmt.Errorf("metadata %s: status %d", id, resp.StatusCode)
	}

	var out struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		MimeType string `json:"mimeType"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.FileRef{}, fmt.Errorf("metadata %s: %w", id, err)
	}
	return models.FileRef{ID: out.ID, Name: out.Name, MimeType: out.MimeType}, nil
}

// Fetch downloads one picked file's raw content.
func (c *DriveClient) Fetch(ctx context.Context, token string, file models.FileRef) ([]byte, error) {
	u := fmt.Sprintf("%s/files/%s?alt=media", c.baseURL, url.PathEscape(file.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.DriveFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.DriveFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: status %d", file.Name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Fetcher downloads picked drive files. *DriveClient satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, token string, file models.FileRef) ([]byte, error)
}

// Picker yields the drive files the user selected: zero or more
// descriptors, or an error. The vendor picker UI stays opaque behind
// this contract.
type Picker interface {
	Pick(ctx context.Context) ([]models.FileRef, error)
}

// IDPicker picks drive files by explicit id, resolving each through the
// metadata endpoint. This is the selection path for a terminal client,
// where there is no picker dialog to open.
type IDPicker struct {
	client *DriveClient
	token  string
	ids    []string
}

// NewIDPicker creates a picker over the given file ids.
func NewIDPicker(client *DriveClient, token string, ids []string) *IDPicker {
	return &IDPicker{client: client, token: token, ids: ids}
}

// Pick resolves the configured ids to file descriptors. An empty id
// list picks nothing, mirroring a cancelled selection.
func (p *IDPicker) Pick(ctx context.Context) ([]models.FileRef, error) {
	picked := make([]models.FileRef, 0, len(p.ids))
	for _, id := range p.ids {
		file, err := p.client.Metadata(ctx, p.token, id)
		if err != nil {
			return nil, err
		}
		picked = append(picked, file)
	}
	return picked, nil
}

// UploadDrive downloads the picked files and uploads them as one batch.
// MIME validation happens before any download; a fetch failure skips that
// file with a notice and the rest of the batch continues.
func (g *Ingestor) UploadDrive(ctx context.Context, sessionID, token string, picked []models.FileRef, fetcher Fetcher) (Result, error) {
	var batch []transport.UploadFile
	var res Result

	for _, file := range picked {
		if !Allowed(file.MimeType) {
			g.reject(&res, file.Name)
			continue
		}
		data, err := fetcher.Fetch(ctx, token, file)
		if err != nil {
			g.log.Error().Err(err).Str("file", file.Name).Msg("Failed to fetch drive content")
			res.Notices = append(res.Notices, fmt.Sprintf("Failed to fetch %s", file.Name))
			continue
		}
		batch = append(batch, transport.UploadFile{Name: file.Name, MimeType: file.MimeType, Content: data})
	}

	sent, err := g.UploadContent(ctx, sessionID, batch)
	res.Uploaded = sent.Uploaded
	res.Rejected = append(res.Rejected, sent.Rejected...)
	res.Notices = append(res.Notices, sent.Notices...)
	return res, err
}
