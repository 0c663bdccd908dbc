// Package audit publishes a summary event for every verdict the engine
// produces. Events never carry file content.
package audit

import (
	"context"
	"log/slog"
	"time"

	"certcheck/internal/certcheck"
)

// Event is the published summary of one verdict.
type Event struct {
	VerdictID  string    `json:"verdict_id"`
	Digest     string    `json:"digest"`
	Status     string    `json:"status"`
	Identifier string    `json:"identifier,omitempty"`
	Path       string    `json:"path"`
	IssueCount int       `json:"issue_count"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// EventFromVerdict summarizes v.
func EventFromVerdict(v *certcheck.Verdict) Event {
	return Event{
		VerdictID:  v.ID,
		Digest:     v.Metadata.Digest,
		Status:     string(v.Status),
		Identifier: v.Metadata.Identifier,
		Path:       string(v.Path),
		IssueCount: len(v.Issues),
		AnalyzedAt: v.AnalyzedAt,
	}
}

// Publisher delivers verdict events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "verdict",
		"verdict_id", e.VerdictID,
		"digest", e.Digest,
		"status", e.Status,
		"identifier", e.Identifier,
		"path", e.Path,
		"issue_count", e.IssueCount,
		"analyzed_at", e.AnalyzedAt.UTC().Format(time.RFC3339),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
