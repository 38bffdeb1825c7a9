package config

const (
	DefaultPaginationLimit = 100
	fallbackPageSize       = 10

	MaxAvailabilityCacheTTLSeconds = 60
)

const (
	SlotPolicyAllow     = "allow"
	SlotPolicyExclusive = "exclusive"
)
