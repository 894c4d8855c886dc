package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lsmon/nativedeps/internal/deps"
)

func TestReceiptsMissing(t *testing.T) {
	r, err := LoadReceipts(t.TempDir())
	if err != nil {
		t.Fatalf("LoadReceipts() on empty root: %v", err)
	}
	if _, ok := r.Get("caching"); ok {
		t.Error("empty receipts report an install")
	}
}

func TestReceiptsRoundTrip(t *testing.T) {
	root := t.TempDir()
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := record(root, "caching", &Receipt{Version: "1.2.0", Platform: "linux", Archive: "lib_caching-1.2.0-Linux.zip", InstallTime: when}); err != nil {
		t.Fatal(err)
	}
	if err := record(root, "cassandra", &Receipt{Version: "2.17.1", Platform: "linux", InstallTime: when}); err != nil {
		t.Fatal(err)
	}
	if err := record(root, "caching", &Receipt{Version: "1.3.0", Platform: "linux", Archive: "lib_caching-1.3.0-Linux.zip", InstallTime: when}); err != nil {
		t.Fatal(err)
	}

	r, err := LoadReceipts(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Installed) != 2 {
		t.Fatalf("got %d receipts, want 2", len(r.Installed))
	}
	e, ok := r.Get("caching")
	if !ok || e.Version != "1.3.0" || e.Archive != "lib_caching-1.3.0-Linux.zip" || !e.InstallTime.Equal(when) {
		t.Errorf("caching receipt = %+v", e)
	}
	if e, _ := r.Get("cassandra"); e == nil || e.Archive != "" {
		t.Errorf("cassandra receipt = %+v", e)
	}
}

func TestReceiptsCorrupt(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".nativedeps", "receipts.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReceipts(root); err == nil {
		t.Error("LoadReceipts accepted a corrupt file")
	}
}

func TestRunRecordsOnlySuccess(t *testing.T) {
	root := t.TempDir()
	f := newFixture()
	f.builder.compile = func(d deps.Descriptor, _ BuildTree) error {
		if d.Name == "netpp" {
			return os.ErrPermission
		}
		return nil
	}
	err := f.p.Run(context.Background(), linuxContext(t, root), []deps.Descriptor{descriptor("caching"), descriptor("netpp")})
	if err == nil {
		t.Fatal("Run succeeded")
	}

	r, err := LoadReceipts(root)
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := r.Get("caching"); !ok || e.Version != "1.2.0" || e.Archive != "lib_caching-1.2.0-Linux.zip" || e.Platform != "linux" {
		t.Errorf("caching receipt = %+v", e)
	}
	if _, ok := r.Get("netpp"); ok {
		t.Error("failed dependency has a receipt")
	}
}
