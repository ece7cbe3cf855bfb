package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Goal constraints
	MaxGoalsPerProfile int
	MaxGoalLength      int

	// Profile constraints
	MaxNameLength int
	MaxBioLength  int

	// Matching
	SearchLimit   int
	MapLabelCount int

	// Groups
	MaxGroupsPerUser   int
	MaxMembersPerGroup int
	MaxGroupNameLength int

	// Messaging
	MaxMessageLength int
	ThreadPageSize   int

	// Live updates
	SocketTTL time.Duration

	// Nearby
	DefaultRadiusMiles float64
	MaxRadiusMiles     float64

	// Time constraints
	RequestTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxGoalsPerProfile: 20,
		MaxGoalLength:      280,

		MaxNameLength: 60,
		MaxBioLength:  500,

		SearchLimit:   50,
		MapLabelCount: 2,

		MaxGroupsPerUser:   50,
		MaxMembersPerGroup: 100,
		MaxGroupNameLength: 80,

		MaxMessageLength: 2000,
		ThreadPageSize:   100,

		SocketTTL: 24 * time.Hour,

		DefaultRadiusMiles: 0,
		MaxRadiusMiles:     12500,

		RequestTimeout: 10 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxMembersPerGroup = 50
	cfg.ThreadPageSize = 50
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxGoalsPerProfile = 100
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
