package db

import (
	"path/filepath"
	"testing"
)

func TestIsPostgres(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"postgres://u:p@localhost/db", true},
		{"postgresql://localhost/db", true},
		{"data/loanmitra.db", false},
		{":memory:", false},
	}

	for _, tt := range tests {
		if got := IsPostgres(tt.url); got != tt.want {
			t.Errorf("IsPostgres(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSQLiteMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "loanmitra.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()

	if err := RunMigrations(database, path); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	var count int
	if err := database.Get(&count, "SELECT COUNT(*) FROM loan_documents"); err != nil {
		t.Fatalf("expected loan_documents table: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}
