package types

// Exposure represents how broadly an asset is reachable
type Exposure string

const (
	ExposurePublic     Exposure = "public"
	ExposurePartner    Exposure = "partner"
	ExposureInternal   Exposure = "internal"
	ExposureRestricted Exposure = "restricted"
)

// IsValid checks if the exposure is valid
func (e Exposure) IsValid() bool {
	switch e {
	case ExposurePublic, ExposurePartner, ExposureInternal, ExposureRestricted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the exposure
func (e Exposure) String() string {
	return string(e)
}

// Criticality represents the business criticality of an asset
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// IsValid checks if the criticality is valid
func (c Criticality) IsValid() bool {
	switch c {
	case CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the criticality
func (c Criticality) String() string {
	return string(c)
}
