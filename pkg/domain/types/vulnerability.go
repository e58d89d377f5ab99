package types

// ExploitMaturity represents the maturity of known exploit code for a
// vulnerability, following the CVSS temporal metric values
type ExploitMaturity string

const (
	ExploitMaturityUnproven       ExploitMaturity = "unproven"
	ExploitMaturityProofOfConcept ExploitMaturity = "proof_of_concept"
	ExploitMaturityFunctional     ExploitMaturity = "functional"
	ExploitMaturityHigh           ExploitMaturity = "high"
)

// IsValid checks if the exploit maturity is valid
func (e ExploitMaturity) IsValid() bool {
	switch e {
	case ExploitMaturityUnproven,
		ExploitMaturityProofOfConcept,
		ExploitMaturityFunctional,
		ExploitMaturityHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the exploit maturity
func (e ExploitMaturity) String() string {
	return string(e)
}

// RemediationLevel represents the availability of a fix for a vulnerability
type RemediationLevel string

const (
	RemediationOfficialFix  RemediationLevel = "official_fix"
	RemediationTemporaryFix RemediationLevel = "temporary_fix"
	RemediationWorkaround   RemediationLevel = "workaround"
	RemediationUnavailable  RemediationLevel = "unavailable"
)

// IsValid checks if the remediation level is valid
func (r RemediationLevel) IsValid() bool {
	switch r {
	case RemediationOfficialFix,
		RemediationTemporaryFix,
		RemediationWorkaround,
		RemediationUnavailable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the remediation level
func (r RemediationLevel) String() string {
	return string(r)
}

// ReportConfidence represents the confidence in the vulnerability report
type ReportConfidence string

const (
	ConfidenceUnknown    ReportConfidence = "unknown"
	ConfidenceReasonable ReportConfidence = "reasonable"
	ConfidenceConfirmed  ReportConfidence = "confirmed"
)

// IsValid checks if the report confidence is valid
func (r ReportConfidence) IsValid() bool {
	switch r {
	case ConfidenceUnknown, ConfidenceReasonable, ConfidenceConfirmed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the report confidence
func (r ReportConfidence) String() string {
	return string(r)
}
