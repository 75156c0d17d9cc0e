package eda

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// Jurisdiction values assigned by FillJurisdiction.
const (
	JurisdictionFederal = "FEDERAL"
	JurisdictionLocal   = "LOCAL"
	JurisdictionUnknown = "DESCONOCIDO"
)

var (
	federalTokens = regexp.MustCompile(`\b(FGR|PGR|REPUBLICA|SEIDO|FEDERAL)\b`)
	localTokens   = regexp.MustCompile(`\b(FGJ|PGJ|CDMX|LOCAL|JUSTICIA)\b|FUERO COMUN`)
)

// JurisdictionOptions configures the jurisdiction completion step.
type JurisdictionOptions struct {
	// Col is the target jurisdiction column; created if absent.
	Col string
	// ContextCols are concatenated (normalized) into the token-matching
	// context. Absent columns contribute nothing.
	ContextCols []string
	// BoroughCol groups the mode fallback. If absent the fallback is skipped.
	BoroughCol string
}

// JurisdictionStats counts fills per fallback layer.
type JurisdictionStats struct {
	FromTokensFederal int `json:"from_tokens_federal"`
	FromTokensLocal   int `json:"from_tokens_local"`
	FromBoroughMode   int `json:"from_borough_mode"`
	AssignedUnknown   int `json:"assigned_unknown"`
}

// FillJurisdiction completes the jurisdiction column through three layers:
// institutional token rules on the normalized context, the per-borough mode
// of already-present values, and finally the unknown sentinel. The column is
// fully populated afterwards. Present values are never overwritten.
func FillJurisdiction(t *frame.Table, opts JurisdictionOptions) (*frame.Table, JurisdictionStats) {
	out := t.Clone()
	out.AddColumn(opts.Col)
	var stats JurisdictionStats

	// Layer 1: token rules on the institutional context.
	for i := 0; i < out.NumRows(); i++ {
		if !frame.IsMissing(out.Get(i, opts.Col)) {
			continue
		}
		ctx := contextKey(out, i, opts.ContextCols)
		switch {
		case federalTokens.MatchString(ctx):
			out.Set(i, opts.Col, JurisdictionFederal)
			stats.FromTokensFederal++
		case localTokens.MatchString(ctx):
			out.Set(i, opts.Col, JurisdictionLocal)
			stats.FromTokensLocal++
		}
	}

	// Layer 2: mode of non-missing values grouped by borough. Empty groups
	// leave the value missing for layer 3.
	if opts.BoroughCol != "" && out.HasColumn(opts.BoroughCol) {
		modes := groupedMode(out, opts.BoroughCol, opts.Col)
		for i := 0; i < out.NumRows(); i++ {
			if !frame.IsMissing(out.Get(i, opts.Col)) {
				continue
			}
			key := textnorm.Canonical(out.Get(i, opts.BoroughCol))
			if mode, ok := modes[key]; ok {
				out.Set(i, opts.Col, mode)
				stats.FromBoroughMode++
			}
		}
	}

	// Layer 3: residuals get the explicit unknown sentinel.
	for i := 0; i < out.NumRows(); i++ {
		if frame.IsMissing(out.Get(i, opts.Col)) {
			out.Set(i, opts.Col, JurisdictionUnknown)
			stats.AssignedUnknown++
		}
	}

	zap.L().Debug("eda: jurisdiction completed",
		zap.Int("from_tokens_federal", stats.FromTokensFederal),
		zap.Int("from_tokens_local", stats.FromTokensLocal),
		zap.Int("from_borough_mode", stats.FromBoroughMode),
		zap.Int("assigned_unknown", stats.AssignedUnknown),
	)
	return out, stats
}

func contextKey(t *frame.Table, row int, cols []string) string {
	var parts []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			continue
		}
		if v := textnorm.Canonical(t.Get(row, c)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// groupedMode returns the most frequent non-missing value of valueCol per
// normalized group key. Ties break toward the lexically smaller value so the
// result is deterministic.
func groupedMode(t *frame.Table, groupCol, valueCol string) map[string]string {
	counts := make(map[string]map[string]int)
	for i := 0; i < t.NumRows(); i++ {
		v := t.Get(i, valueCol)
		if frame.IsMissing(v) {
			continue
		}
		key := textnorm.Canonical(t.Get(i, groupCol))
		if counts[key] == nil {
			counts[key] = make(map[string]int)
		}
		counts[key][v]++
	}

	modes := make(map[string]string, len(counts))
	for key, byValue := range counts {
		best, bestN := "", -1
		for v, n := range byValue {
			if n > bestN || (n == bestN && v < best) {
				best, bestN = v, n
			}
		}
		modes[key] = best
	}
	return modes
}
