package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := WriteKey(path, "secret-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key, err := ReadKey(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "secret-token" {
		t.Fatalf("expected %q, got %q", "secret-token", key)
	}
	if err := WriteKey(path, "other"); err == nil {
		t.Fatal("expected an existing key file not to be overwritten")
	}
}

func TestReadKeyPermissions(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		perm    os.FileMode
		wantErr bool
	}{
		{0600, false},
		{0400, false},
		{0644, true},
		{0640, true},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.perm.String())
		if err := os.WriteFile(path, []byte("token\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, tt.perm); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadKey(path); (err != nil) != tt.wantErr {
			t.Errorf("ReadKey with %s: got err=%v, wantErr %v", tt.perm, err, tt.wantErr)
		}
	}
}

func TestReadKeyEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadKey(path); err == nil {
		t.Fatal("expected an error for an empty key file")
	}
}
