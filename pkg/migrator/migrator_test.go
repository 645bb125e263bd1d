package migrator

import (
	"testing"
	"testing/fstest"

	"github.com/ghuser/bookcirc/migrations/circulation"
)

func TestLatest(t *testing.T) {
	files := fstest.MapFS{
		"00001_branches.sql": {Data: []byte("-- +goose Up\n")},
		"00012_loans.sql":    {Data: []byte("-- +goose Up\n")},
		"00003_settings.sql": {Data: []byte("-- +goose Up\n")},
		"README.md":          {Data: []byte("not a migration")},
	}
	got, err := Latest(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestLatest_BadName(t *testing.T) {
	files := fstest.MapFS{"loans.sql": {Data: []byte("-- +goose Up\n")}}
	if _, err := Latest(files); err == nil {
		t.Fatal("expected error for a migration without a version prefix")
	}
}

func TestLatest_EmbeddedCirculation(t *testing.T) {
	got, err := Latest(circulation.FS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Fatalf("expected the circulation schema at version 5, got %d", got)
	}
}
