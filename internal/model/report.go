package model

// SupportReport summarizes claim verification over one generated answer.
// Every number is reproducible from Matches; Signals carry the formulas used.
type SupportReport struct {
	Matches            []ClaimSourceMatch `json:"matches"`
	SupportedCount     int                `json:"supported_count"`
	UnsupportedCount   int                `json:"unsupported_count"`
	OverallSupportRate float64            `json:"overall_support_rate"` // supported / total, 0 when no claims
	Signals            []Signal           `json:"signals,omitempty"`
}

// WeakCitationReport partitions matches by support confidence.
type WeakCitationReport struct {
	Strong      []ClaimSourceMatch `json:"strong"`
	Weak        []ClaimSourceMatch `json:"weak"`
	Remediation []string           `json:"remediation,omitempty"` // Human-readable fixes, one per weak claim
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalClaimSupport      SignalType = "claim_support"      // supported-to-total ratio
	SignalUncitedClaims     SignalType = "uncited_claims"     // claims with no inline citation
	SignalCitationMismatch  SignalType = "citation_mismatch"  // cited source is not the best match
	SignalInconsistentCites SignalType = "inconsistent_cites" // citations dropped by self-consistency
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
