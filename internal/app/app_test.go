package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certcheck/internal/certcheck"
	"certcheck/internal/config"
	"certcheck/internal/registry"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Remote.Enabled = false
	cfg.Registry = config.RegistryConfig{Type: "memory", Seed: true}
	cfg.Audit = config.AuditConfig{Type: "none"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *CheckApp {
	t.Helper()
	a, err := NewCheckApp(context.Background(), cfg, "test", "")
	if err != nil {
		t.Fatalf("NewCheckApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestCheckApp_VerifyPaths(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	dir := t.TempDir()
	writeArtifact(t, dir, "JH-RU-2021-004567.pdf", "forged")
	writeArtifact(t, dir, "unknown.pdf", "nothing")
	writeArtifact(t, dir, "Thumbs.db", "ignored")

	verdicts, err := a.VerifyPaths(context.Background(), []string{dir}, false)
	if err != nil {
		t.Fatalf("VerifyPaths() error = %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(verdicts))
	}

	clone := verdicts[0]
	if clone.Metadata.FileName != "JH-RU-2021-004567.pdf" {
		t.Fatalf("verdicts[0] is for %q", clone.Metadata.FileName)
	}
	if clone.Status != certcheck.StatusSuspect || !clone.HasIssue(certcheck.IssueDuplicateNumber) {
		t.Errorf("clone verdict = %s %v", clone.Status, clone.Issues)
	}
	if !verdicts[1].HasIssue(certcheck.IssueNoRegistryMatch) {
		t.Errorf("unknown verdict issues = %v", verdicts[1].Issues)
	}

	if got := a.Run().Count(certcheck.StatusSuspect); got != 2 {
		t.Errorf("Run().Count(suspect) = %d, want 2", got)
	}
	if a.Run().Failed() {
		t.Error("Run().Failed() = true, want false")
	}
}

func TestCheckApp_RemoteDownFallsBack(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	cfg := newTestConfig(t)
	cfg.Remote.Enabled = true
	cfg.Remote.BaseURL = backend.URL
	a := newTestApp(t, cfg)

	v := a.Analyze(context.Background(), certcheck.Artifact{
		Name:      "JH-NU-2019-000123.pdf",
		MediaType: "application/pdf",
		Data:      []byte("rescan"),
	})
	if v.Path != certcheck.PathLocal {
		t.Fatalf("Path = %q, want local", v.Path)
	}
	want := []string{certcheck.IssueBackendUnavailable, certcheck.IssueDigestMismatch}
	if strings.Join(v.Issues, "|") != strings.Join(want, "|") {
		t.Errorf("Issues = %v, want %v", v.Issues, want)
	}
}

func TestCheckApp_Records(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Registry = config.RegistryConfig{Type: "json", Path: filepath.Join(t.TempDir(), "registry.json")}
	a := newTestApp(t, cfg)
	ctx := context.Background()

	rec, err := a.AddRecord(ctx, certcheck.Record{
		Identifier:  " jh-ab-2022-000042 ",
		Digest:      strings.Repeat("C", 64),
		Name:        "Test Holder",
		Institution: "Test University",
		Year:        2022,
	})
	if err != nil {
		t.Fatalf("AddRecord() error = %v", err)
	}
	if rec.Identifier != "JH-AB-2022-000042" || rec.Digest != strings.Repeat("c", 64) {
		t.Errorf("AddRecord() stored %+v, want normalized fields", rec)
	}

	if _, err := a.AddRecord(ctx, certcheck.Record{Identifier: "bogus"}); err == nil {
		t.Error("AddRecord() with invalid record should fail")
	}

	n, err := a.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	if n != 3 {
		t.Errorf("SeedDemo() added %d, want 3", n)
	}

	var buf bytes.Buffer
	if err := a.ExportRecords(ctx, &buf); err != nil {
		t.Fatalf("ExportRecords() error = %v", err)
	}

	other := newTestApp(t, newTestConfig(t))
	n, err = other.ImportRecords(ctx, &buf)
	if err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ImportRecords() added %d, want 1 (demo records already seeded)", n)
	}

	records, err := other.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 4 {
		t.Errorf("ListRecords() = %d records, want 4", len(records))
	}
}

func TestCheckApp_ImportRejectsInvalid(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	_, err := a.ImportRecords(context.Background(), strings.NewReader(`[{"certificate_number":"JH-AB-2022-000001","hash_hex":"zz"}]`))
	if err == nil {
		t.Fatal("ImportRecords() should reject an invalid digest")
	}
	records, _ := a.ListRecords(context.Background())
	if len(records) != len(registry.DemoRecords()) {
		t.Errorf("registry changed after a rejected import: %d records", len(records))
	}
}

func TestCheckApp_PublishSnapshotRequiresBucket(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))
	if _, err := a.PublishSnapshot(context.Background()); err == nil {
		t.Fatal("PublishSnapshot() without a bucket should fail")
	}
}

func TestMigrateRegistry(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Registry = config.RegistryConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "registry.db")}

	if _, err := NewCheckApp(context.Background(), cfg, "test", ""); err == nil {
		t.Fatal("NewCheckApp() should fail before migrations are applied")
	}

	migrated, err := MigrateRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("MigrateRegistry() error = %v", err)
	}
	if !migrated {
		t.Error("MigrateRegistry() = false for sqlite, want true")
	}

	a := newTestApp(t, cfg)
	if _, err := a.SeedDemo(context.Background()); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	memCfg := newTestConfig(t)
	migrated, err = MigrateRegistry(context.Background(), memCfg)
	if err != nil {
		t.Fatalf("MigrateRegistry() error = %v", err)
	}
	if migrated {
		t.Error("MigrateRegistry() = true for memory registry, want false")
	}
}
