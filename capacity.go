package radar

import "fmt"

// Storage limits in bytes.
const (
	MB = 1024 * 1024

	DefaultSoftLimit = 50 * MB
	DefaultHardLimit = 100 * MB
	DefaultWarnRatio = 0.8
)

// CapacityDecision is the outcome of a capacity check.
type CapacityDecision struct {
	Allowed bool   `json:"allowed"`
	Warning string `json:"warning,omitempty"`
}

// CapacityPolicy authorizes new writes against soft and hard storage limits.
type CapacityPolicy struct {
	// SoftLimit is the nominal quota reported to users.
	SoftLimit int64
	// WarnRatio of SoftLimit is where writes start carrying a warning.
	WarnRatio float64
	// HardLimit is never exceeded.
	HardLimit int64
}

// DefaultCapacityPolicy warns at 80% of 50MB and refuses writes beyond 100MB.
func DefaultCapacityPolicy() CapacityPolicy {
	return CapacityPolicy{
		SoftLimit: DefaultSoftLimit,
		WarnRatio: DefaultWarnRatio,
		HardLimit: DefaultHardLimit,
	}
}

// CanStore reports whether size more bytes may be written when used bytes
// are already stored.
func (p CapacityPolicy) CanStore(used, size int64) CapacityDecision {
	total := used + size
	if total > p.HardLimit {
		return CapacityDecision{
			Allowed: false,
			Warning: fmt.Sprintf("storage full: %s of %s used", FormatBytes(used), FormatBytes(p.HardLimit)),
		}
	}
	if float64(total) >= float64(p.SoftLimit)*p.WarnRatio {
		return CapacityDecision{
			Allowed: true,
			Warning: fmt.Sprintf("storage almost full: %s of %s used", FormatBytes(total), FormatBytes(p.SoftLimit)),
		}
	}
	return CapacityDecision{Allowed: true}
}

// Usage reports used bytes against the soft limit.
func (p CapacityPolicy) Usage(used int64) StorageUsage {
	u := StorageUsage{Used: used, Limit: p.SoftLimit}
	if p.SoftLimit > 0 {
		u.Percentage = float64(used) / float64(p.SoftLimit) * 100
	}
	return u
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int64) string {
	const KB = 1024
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
