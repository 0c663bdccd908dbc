package testutil

import (
	"strconv"
	"sync/atomic"
	"time"

	"certcheck/internal/certcheck"
)

// AnalysisTime is the timestamp every verdict produced under FixedClock carries.
var AnalysisTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// FixedClock stamps every verdict with AnalysisTime.
func FixedClock() certcheck.Clock {
	return clockFunc(func() time.Time { return AnalysisTime })
}

// VerdictIDs issues "verdict-1", "verdict-2", ... in call order.
// Safe for concurrent use.
type VerdictIDs struct {
	n atomic.Int64
}

var _ certcheck.IDGenerator = (*VerdictIDs)(nil)

func NewVerdictIDs() *VerdictIDs { return &VerdictIDs{} }

func (g *VerdictIDs) New() string {
	return "verdict-" + strconv.FormatInt(g.n.Add(1), 10)
}

// Issued returns how many IDs have been handed out.
func (g *VerdictIDs) Issued() int { return int(g.n.Load()) }
