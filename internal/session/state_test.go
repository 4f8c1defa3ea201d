package session

import "testing"

func TestCurrentFolderRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	folder, err := LoadCurrentFolder()
	if err != nil {
		t.Fatalf("LoadCurrentFolder() error: %v", err)
	}
	if folder != "" {
		t.Errorf("LoadCurrentFolder() with no state = %q, want empty", folder)
	}

	if err := SaveCurrentFolder("/kb/reports"); err != nil {
		t.Fatalf("SaveCurrentFolder() error: %v", err)
	}

	folder, err = LoadCurrentFolder()
	if err != nil {
		t.Fatalf("LoadCurrentFolder() error: %v", err)
	}
	if folder != "/kb/reports" {
		t.Errorf("LoadCurrentFolder() = %q, want /kb/reports", folder)
	}

	if err := ClearCurrentFolder(); err != nil {
		t.Fatalf("ClearCurrentFolder() error: %v", err)
	}
	if err := ClearCurrentFolder(); err != nil {
		t.Errorf("second ClearCurrentFolder() error: %v", err)
	}
}
