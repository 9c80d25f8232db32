package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-assistant-client/internal/models"
)

type fakeFetcher struct {
	content map[string][]byte
	err     map[string]error
	tokens  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, token string, file models.FileRef) ([]byte, error) {
	f.tokens = append(f.tokens, token)
	if err := f.err[file.ID]; err != nil {
		return nil, err
	}
	return f.content[file.ID], nil
}

func TestUploadDrive_ValidatesBeforeFetching(t *testing.T) {
	up := &fakeUploader{}
	g := New(up)
	fetcher := &fakeFetcher{content: map[string][]byte{"id-1": []byte("# doc")}}

	picked := []models.FileRef{
		{ID: "id-1", Name: "doc.md", MimeType: "text/markdown"},
		{ID: "id-2", Name: "movie.mp4", MimeType: "video/mp4"},
	}
	res, err := g.UploadDrive(context.Background(), "session_1", "tok", picked, fetcher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The rejected file must never be downloaded.
	if len(fetcher.tokens) != 1 {
		t.Errorf("fetch count = %d, want 1", len(fetcher.tokens))
	}
	if len(res.Uploaded) != 1 || res.Uploaded[0].Name != "doc.md" {
		t.Errorf("uploaded = %v", res.Uploaded)
	}
	if len(res.Rejected) != 1 || res.Rejected[0] != "movie.mp4" {
		t.Errorf("rejected = %v", res.Rejected)
	}
}

func TestUploadDrive_FetchFailureSkipsFile(t *testing.T) {
	up := &fakeUploader{}
	g := New(up)
	fetcher := &fakeFetcher{
		content: map[string][]byte{"id-1": []byte("# doc")},
		err:     map[string]error{"id-2": errors.New("forbidden")},
	}

	picked := []models.FileRef{
		{ID: "id-1", Name: "doc.md", MimeType: "text/markdown"},
		{ID: "id-2", Name: "other.md", MimeType: "text/markdown"},
	}
	res, err := g.UploadDrive(context.Background(), "session_1", "tok", picked, fetcher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Uploaded) != 1 || res.Uploaded[0].Name != "doc.md" {
		t.Errorf("uploaded = %v", res.Uploaded)
	}
	joined := strings.Join(res.Notices, "\n")
	if !strings.Contains(joined, "Failed to fetch other.md") {
		t.Errorf("notices = %v", res.Notices)
	}
}

func TestDriveClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/id-9" || r.URL.Query().Get("alt") != "media" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte("drive-bytes"))
	}))
	defer srv.Close()

	c := NewDriveClient()
	c.baseURL = srv.URL

	data, err := c.Fetch(context.Background(), "tok-1", models.FileRef{ID: "id-9", Name: "doc.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "drive-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestDriveClient_Metadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/id-3" || r.URL.Query().Get("fields") != "id,name,mimeType" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Write([]byte(`{"id":"id-3","name":"doc.md","mimeType":"text/markdown"}`))
	}))
	defer srv.Close()

	c := NewDriveClient()
	c.baseURL = srv.URL

	file, err := c.Metadata(context.Background(), "tok", "id-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.ID != "id-3" || file.Name != "doc.md" || file.MimeType != "text/markdown" {
		t.Errorf("file = %+v", file)
	}
}

func TestIDPicker_ResolvesEachID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/id-1":
			w.Write([]byte(`{"id":"id-1","name":"a.md","mimeType":"text/markdown"}`))
		case "/files/id-2":
			w.Write([]byte(`{"id":"id-2","name":"b.go","mimeType":"text/x-golang"}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewDriveClient()
	c.baseURL = srv.URL

	picked, err := NewIDPicker(c, "tok", []string{"id-1", "id-2"}).Pick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picked) != 2 || picked[0].Name != "a.md" || picked[1].Name != "b.go" {
		t.Errorf("picked = %+v", picked)
	}
}

func TestIDPicker_EmptyPicksNothing(t *testing.T) {
	picked, err := NewIDPicker(NewDriveClient(), "tok", nil).Pick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picked) != 0 {
		t.Errorf("picked = %+v, want none", picked)
	}
}

func TestDriveClient_FetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewDriveClient()
	c.baseURL = srv.URL

	if _, err := c.Fetch(context.Background(), "tok", models.FileRef{ID: "id-1", Name: "doc.md"}); err == nil {
		t.Error("expected an error for a 403 response")
	}
}
