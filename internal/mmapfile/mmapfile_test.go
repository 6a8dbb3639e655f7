package mmapfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("maps_full_contents", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "data.csv")
		payload := []byte("sku,qty\nA1,5\nB2,3\n")
		if err := os.WriteFile(p, payload, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}

		mf, err := Open(p)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if !bytes.Equal(mf.Bytes(), payload) {
			t.Fatalf("Bytes() = %q, want %q", mf.Bytes(), payload)
		}
		if err := mf.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "empty.csv")
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}

		mf, err := Open(p)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if len(mf.Bytes()) != 0 {
			t.Fatalf("Bytes() = %q, want empty", mf.Bytes())
		}
		if err := mf.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("errors.Is(%v, os.ErrNotExist) = false", err)
		}
	})
}
