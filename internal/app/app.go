package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"certcheck/internal/artifact"
	"certcheck/internal/audit"
	"certcheck/internal/certcheck"
	"certcheck/internal/config"
	"certcheck/internal/credentials"
	"certcheck/internal/digest"
	"certcheck/internal/metrics"
	"certcheck/internal/qrcode"
	"certcheck/internal/registry"
	"certcheck/internal/remote"
	"certcheck/internal/server"
)

// CheckApp is the application layer between the CLI and the engine.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw paths, and releases resources on Close.
type CheckApp struct {
	cfg       *config.Config
	store     registry.Store
	client    *remote.Client
	creds     *credentials.AgeStore
	promReg   *prometheus.Registry
	metrics   *metrics.Metrics
	publisher audit.Publisher
	engine    *certcheck.Engine
	loader    *artifact.Loader
	logger    *slog.Logger
	clock     certcheck.Clock
	run       *Run
	logFile   *os.File
}

var _ certcheck.Analyzer = (*CheckApp)(nil)

// NewCheckApp creates a fully wired CheckApp from the given config.
// command identifies the CLI command being run (e.g. "verify", "serve").
// passphrase unlocks saved backend credentials; when empty the backend is
// called anonymously. The caller must call Close when done.
func NewCheckApp(ctx context.Context, cfg *config.Config, command, passphrase string) (*CheckApp, error) {
	clock := certcheck.RealClock{}
	run := NewRun(command, clock.Now())

	logger, logFile, err := newLogger(cfg.LogDir, run.ID, slog.LevelInfo)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &CheckApp{
		cfg:     cfg,
		creds:   credentials.NewAgeStore(cfg.Remote.CredentialsPath),
		loader:  artifact.NewLoader(cfg.Artifacts),
		logger:  logger,
		clock:   clock,
		run:     run,
		logFile: logFile,
	}

	a.store, err = registry.NewStoreFromConfig(ctx, cfg.Registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	if m, ok := a.store.(registry.Migrator); ok {
		if err := m.CheckMigrations(); err != nil {
			a.Close()
			return nil, fmt.Errorf("registry schema out of date (run 'certcheck registry migrate'): %w", err)
		}
	}

	a.publisher, err = audit.NewPublisherFromConfig(cfg.Audit, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating audit publisher: %w", err)
	}

	a.promReg = prometheus.NewRegistry()
	a.promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.promReg)

	var rem certcheck.Remote
	if cfg.Remote.Enabled {
		session := a.loadSession(passphrase)
		a.client = remote.New(cfg.Remote.BaseURL,
			remote.WithSession(session),
			remote.WithTimeout(cfg.Remote.Timeout()),
		)
		rem = remote.NewVerifier(a.client, a.metrics)
	}

	a.engine = certcheck.NewEngine(
		digest.SHA256{},
		qrcode.NewDecoder(true),
		a.store,
		rem,
		&slogAdapter{l: logger},
		clock,
		certcheck.UUIDGenerator{},
		certcheck.WithObserver(a.metrics),
	)
	return a, nil
}

// loadSession returns the saved session, or an anonymous one when none is
// saved, it cannot be unlocked, or it has expired.
func (a *CheckApp) loadSession(passphrase string) remote.Session {
	if passphrase == "" || !a.creds.Exists() {
		return remote.Session{}
	}
	s, err := a.creds.Load(passphrase)
	if err != nil {
		a.logger.Warn("saved credentials unusable, continuing anonymously", "error", err)
		return remote.Session{}
	}
	if s.Expired(a.clock.Now()) {
		a.logger.Warn("saved session expired, continuing anonymously")
		return remote.Session{}
	}
	return s
}

// Analyze runs the engine on one artifact, records it against the run, and
// publishes the verdict event. Publishing failures are logged, never
// surfaced in the verdict.
func (a *CheckApp) Analyze(ctx context.Context, art certcheck.Artifact) *certcheck.Verdict {
	v := a.engine.Analyze(ctx, art)
	a.run.Record(v.Status)
	if err := a.publisher.Publish(ctx, audit.EventFromVerdict(v)); err != nil {
		a.logger.Error("publishing verdict event", "verdict_id", v.ID, "error", err)
	}
	return v
}

// VerifyPaths analyzes every file named by paths (directories are expanded,
// recursively when asked). Verdicts are returned in path order.
func (a *CheckApp) VerifyPaths(ctx context.Context, paths []string, recursive bool) ([]*certcheck.Verdict, error) {
	files, err := a.loader.Collect(paths, recursive)
	if err != nil {
		return nil, fmt.Errorf("collecting files: %w", err)
	}

	artifacts := make([]certcheck.Artifact, 0, len(files))
	for _, f := range files {
		art, err := a.loader.Load(f)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, art)
	}

	return certcheck.BatchAnalyze(ctx, a, artifacts, a.cfg.Batch.Concurrency)
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *CheckApp) Serve(ctx context.Context) error {
	srv := server.New(a, a.loader, a.promReg, a.logger)
	return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
}

// Run returns the record of this invocation.
func (a *CheckApp) Run() *Run { return a.run }

// AddRecord validates rec and registers it.
func (a *CheckApp) AddRecord(ctx context.Context, rec certcheck.Record) (certcheck.Record, error) {
	rec, err := registry.Normalize(rec)
	if err != nil {
		return rec, err
	}
	if err := a.store.Add(ctx, rec); err != nil {
		return rec, fmt.Errorf("adding record: %w", err)
	}
	a.logger.Info("record registered", "certificate_number", rec.Identifier, "digest", rec.Digest)
	return rec, nil
}

// ListRecords returns all registered records in insertion order.
func (a *CheckApp) ListRecords(ctx context.Context) ([]certcheck.Record, error) {
	return a.store.List(ctx)
}

// ImportRecords reads a JSON array of records from r, validates every one,
// and registers those not already present. Nothing is added if any record
// is invalid.
func (a *CheckApp) ImportRecords(ctx context.Context, r io.Reader) (int, error) {
	records, err := registry.DecodeRecords(r)
	if err != nil {
		return 0, err
	}
	for i := range records {
		if records[i], err = registry.Normalize(records[i]); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	n, err := registry.Import(ctx, a.store, records)
	if err != nil {
		return n, err
	}
	a.logger.Info("records imported", "added", n, "read", len(records))
	return n, nil
}

// SeedDemo registers the demo records that are not already present.
func (a *CheckApp) SeedDemo(ctx context.Context) (int, error) {
	return registry.Import(ctx, a.store, registry.DemoRecords())
}

// ExportRecords writes all records to w as a JSON array.
func (a *CheckApp) ExportRecords(ctx context.Context, w io.Writer) error {
	records, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	return registry.EncodeRecords(w, records)
}

// PublishSnapshot uploads the current registry to the configured S3 object,
// where read-only "s3" registries load it from.
func (a *CheckApp) PublishSnapshot(ctx context.Context) (int, error) {
	if a.cfg.Registry.S3Bucket == "" {
		return 0, errors.New("registry.s3_bucket is not configured")
	}
	snap, err := registry.NewS3Snapshot(ctx, a.cfg.Registry)
	if err != nil {
		return 0, err
	}
	records, err := a.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := snap.Publish(ctx, records); err != nil {
		return 0, err
	}
	a.logger.Info("registry snapshot published", "bucket", a.cfg.Registry.S3Bucket, "records", len(records))
	return len(records), nil
}

// Client returns the backend client, or nil when the backend is disabled.
func (a *CheckApp) Client() *remote.Client { return a.client }

// Close flushes the audit publisher and closes the registry and log file.
func (a *CheckApp) Close() error {
	var firstErr error

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			firstErr = fmt.Errorf("closing audit publisher: %w", err)
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing registry: %w", err)
		}
	}

	if a.logger != nil && a.run.Total() > 0 {
		a.logger.Info("run finished",
			"command", a.run.Command,
			"verdicts", a.run.Total(),
			"valid", a.run.Count(certcheck.StatusValid),
			"suspect", a.run.Count(certcheck.StatusSuspect),
			"invalid", a.run.Count(certcheck.StatusInvalid),
			"elapsed", a.clock.Now().Sub(a.run.StartedAt).Truncate(time.Millisecond),
		)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// MigrateRegistry applies pending schema migrations to the configured
// registry. Stores without a managed schema are left untouched.
func MigrateRegistry(ctx context.Context, cfg *config.Config) (bool, error) {
	store, err := registry.NewStoreFromConfig(ctx, cfg.Registry)
	if err != nil {
		return false, fmt.Errorf("opening registry: %w", err)
	}
	defer store.Close()

	m, ok := store.(registry.Migrator)
	if !ok {
		return false, nil
	}
	if err := m.Migrate(); err != nil {
		return false, fmt.Errorf("migrating registry: %w", err)
	}
	return true, nil
}
