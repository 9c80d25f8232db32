package ui

import (
	"bytes"
	"strings"
	"testing"

	"voice-assistant-client/internal/models"
)

func TestConsole_ShowEntry(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.ShowEntry(models.TranscriptEntry{Role: models.RoleUser, Text: "hello"})
	c.ShowEntry(models.TranscriptEntry{Role: models.RoleAssistant, Text: "hi there"})

	out := buf.String()
	if !strings.Contains(out, "You:") || !strings.Contains(out, "hello") {
		t.Errorf("missing user entry in %q", out)
	}
	if !strings.Contains(out, "Assistant:") || !strings.Contains(out, "hi there") {
		t.Errorf("missing assistant entry in %q", out)
	}
}

func TestConsole_ShowStatus(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.ShowStatus("Processing...")
	c.ShowStatus("Error: Credits over")

	out := buf.String()
	if !strings.Contains(out, "[Processing...]") {
		t.Errorf("missing status in %q", out)
	}
	if !strings.Contains(out, "[Error: Credits over]") {
		t.Errorf("missing error status in %q", out)
	}
}

func TestConsole_ShowFiles(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.ShowFiles(nil)
	if !strings.Contains(buf.String(), "No files uploaded") {
		t.Errorf("missing empty-list notice in %q", buf.String())
	}

	buf.Reset()
	c.ShowFiles([]models.UploadedFile{
		{Name: "notes.md", Hash: "0123456789abcdef"},
	})
	out := buf.String()
	if !strings.Contains(out, "notes.md") {
		t.Errorf("missing file name in %q", out)
	}
	if !strings.Contains(out, "01234567") || strings.Contains(out, "0123456789abcdef") {
		t.Errorf("hash not shortened in %q", out)
	}
}
