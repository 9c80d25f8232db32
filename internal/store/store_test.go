package store

import (
	"path/filepath"
	"testing"

	"voice-assistant-client/internal/models"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "client.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_DriveAuthorizedFlag(t *testing.T) {
	s := openTemp(t)

	// Missing flag reads as false.
	authorized, err := s.DriveAuthorized()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if authorized {
		t.Error("fresh store must not report a drive grant")
	}

	if err := s.SetDriveAuthorized(true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if authorized, _ = s.DriveAuthorized(); !authorized {
		t.Error("flag not persisted")
	}

	if err := s.SetDriveAuthorized(false); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if authorized, _ = s.DriveAuthorized(); authorized {
		t.Error("flag not cleared")
	}
}

func TestStore_ArchiveAndMessages(t *testing.T) {
	s := openTemp(t)

	msgs := []struct {
		session string
		role    models.Role
		content string
	}{
		{"session_1", models.RoleUser, "hello"},
		{"session_1", models.RoleAssistant, "hi there"},
		{"session_2", models.RoleUser, "other session"},
	}
	for _, m := range msgs {
		if err := s.ArchiveMessage(m.session, m.role, m.content); err != nil {
			t.Fatalf("archive: %v", err)
		}
	}

	got, err := s.Messages("session_1", 0)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if got[0].Role != models.RoleUser || got[0].Content != "hello" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Role != models.RoleAssistant || got[1].Content != "hi there" {
		t.Errorf("second = %+v", got[1])
	}

	limited, err := s.Messages("session_1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Content != "hello" {
		t.Errorf("limited = %v", limited)
	}
}

func TestStore_Sessions(t *testing.T) {
	s := openTemp(t)

	s.ArchiveMessage("session_old", models.RoleUser, "first")
	s.ArchiveMessage("session_new", models.RoleUser, "second")
	s.ArchiveMessage("session_old", models.RoleAssistant, "third")

	sessions, err := s.Sessions(0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	// Most recent activity first.
	if len(sessions) != 2 || sessions[0] != "session_old" || sessions[1] != "session_new" {
		t.Errorf("sessions = %v", sessions)
	}

	limited, err := s.Sessions(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0] != "session_old" {
		t.Errorf("limited = %v", limited)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.SetDriveAuthorized(true)
	s.ArchiveMessage("session_1", models.RoleUser, "hello")
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if authorized, _ := s2.DriveAuthorized(); !authorized {
		t.Error("drive flag lost across reopen")
	}
	msgs, _ := s2.Messages("session_1", 0)
	if len(msgs) != 1 {
		t.Error("archive lost across reopen")
	}
}
