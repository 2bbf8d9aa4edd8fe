package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/ragcore/internal/model"
)

// Verifier extracts claims from an answer and matches them to sources.
type Verifier struct {
	extractor      *ClaimExtractor
	matcher        *SourceMatcher
	weakConfidence float64
	logger         *slog.Logger
}

// NewVerifier creates a verifier from matching config.
func NewVerifier(cfg model.MatchingConfig, matcher *SourceMatcher, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	weak := cfg.WeakConfidenceThreshold
	if weak == 0 {
		weak = 0.5
	}
	return &Verifier{
		extractor:      NewClaimExtractor(cfg.MaxResponseChars),
		matcher:        matcher,
		weakConfidence: weak,
		logger:         logger,
	}
}

// Extract returns the claims of answer.
func (v *Verifier) Extract(answer string) []model.ExtractedClaim {
	return v.extractor.Extract(answer)
}

// Verify extracts the claims of answer and matches them all.
func (v *Verifier) Verify(ctx context.Context, answer string, chunks []model.ScoredChunk, citations []model.Citation) model.SupportReport {
	return v.MatchAll(ctx, v.extractor.Extract(answer), chunks, citations)
}

// MatchAll matches every claim and summarizes support. Unsupported claims
// are logged but never fail the call.
func (v *Verifier) MatchAll(ctx context.Context, claims []model.ExtractedClaim, chunks []model.ScoredChunk, citations []model.Citation) model.SupportReport {
	report := model.SupportReport{
		Matches: make([]model.ClaimSourceMatch, 0, len(claims)),
	}
	for _, claim := range claims {
		m := v.matcher.MatchClaim(ctx, claim, chunks, citations)
		if m.IsSupported {
			report.SupportedCount++
		} else {
			report.UnsupportedCount++
		}
		report.Matches = append(report.Matches, m)
	}
	if len(claims) > 0 {
		report.OverallSupportRate = float64(report.SupportedCount) / float64(len(claims))
	}

	if report.UnsupportedCount > 0 {
		v.logger.Warn("answer contains unsupported claims",
			"unsupported", report.UnsupportedCount,
			"total", len(claims),
			"support_rate", report.OverallSupportRate,
		)
	}

	report.Signals = supportSignals(report)
	return report
}

// IdentifyWeaklyCited partitions matches by support confidence and emits
// one remediation string per weak claim.
func (v *Verifier) IdentifyWeaklyCited(matches []model.ClaimSourceMatch) model.WeakCitationReport {
	return IdentifyWeaklyCited(matches, v.weakConfidence)
}

// IdentifyWeaklyCited partitions matches at threshold.
func IdentifyWeaklyCited(matches []model.ClaimSourceMatch, threshold float64) model.WeakCitationReport {
	var report model.WeakCitationReport
	for _, m := range matches {
		if m.SupportConfidence >= threshold {
			report.Strong = append(report.Strong, m)
			continue
		}
		report.Weak = append(report.Weak, m)
		report.Remediation = append(report.Remediation, remediation(m))
	}
	return report
}

func remediation(m model.ClaimSourceMatch) string {
	switch {
	case m.BestMatch == nil:
		return fmt.Sprintf("%s: no retrieved note supports %q; remove it or add a note that covers it", m.Claim.ID, m.Claim.Text)
	case !m.Claim.HasCitations():
		return fmt.Sprintf("%s: add a citation, closest source is [%s] (%.2f)", m.Claim.ID, m.BestMatch.CID, m.SupportConfidence)
	case !cites(m.Claim, m.BestMatch.CID):
		return fmt.Sprintf("%s: cited %v but [%s] matches better (%.2f)", m.Claim.ID, m.Claim.CitedSources, m.BestMatch.CID, m.SupportConfidence)
	default:
		return fmt.Sprintf("%s: [%s] only weakly supports the claim (%.2f); rephrase closer to the note", m.Claim.ID, m.BestMatch.CID, m.SupportConfidence)
	}
}

func cites(c model.ExtractedClaim, cid string) bool {
	for _, id := range c.CitedSources {
		if id == cid {
			return true
		}
	}
	return false
}

// supportSignals derives diagnostic signals from a report
func supportSignals(report model.SupportReport) []model.Signal {
	total := len(report.Matches)
	if total == 0 {
		return []model.Signal{{
			Type:        model.SignalClaimSupport,
			Severity:    model.SeverityInfo,
			Description: "No claims extracted",
			Data:        map[string]interface{}{"claims": 0},
		}}
	}

	severity := model.SeverityInfo
	if report.OverallSupportRate < 0.5 {
		severity = model.SeverityCritical
	} else if report.OverallSupportRate < 0.8 {
		severity = model.SeverityWarning
	}
	signals := []model.Signal{{
		Type:        model.SignalClaimSupport,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims supported by retrieved notes", report.SupportedCount, total),
		Data: map[string]interface{}{
			"supported":   report.SupportedCount,
			"unsupported": report.UnsupportedCount,
			"rate":        report.OverallSupportRate,
			"formula":     "supported_claims / total_claims",
		},
	}}

	var uncited, mismatched []string
	for _, m := range report.Matches {
		if !m.Claim.HasCitations() {
			uncited = append(uncited, m.Claim.ID)
			continue
		}
		if m.BestMatch != nil && !cites(m.Claim, m.BestMatch.CID) {
			mismatched = append(mismatched, m.Claim.ID)
		}
	}
	if len(uncited) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalUncitedClaims,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d claims carry no citation", len(uncited)),
			Data:        map[string]interface{}{"claims": uncited},
		})
	}
	if len(mismatched) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalCitationMismatch,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d claims cite a source that is not their best match", len(mismatched)),
			Data:        map[string]interface{}{"claims": mismatched},
		})
	}
	return signals
}
