package common

// AccessTokenQueryParam is the query parameter accepted as a fallback for
// the Authorization header.
const AccessTokenQueryParam = "token"

// TokenType is reported to clients alongside issued access tokens.
const TokenType = "bearer"

// APIVersion is reported by the health endpoints.
const APIVersion = "1.0.0"

const (
	ModelTypeDrivingEvent = "driving_event"
	ModelTypeDrivingStyle = "driving_style"
)

// DefaultAnalysisPeriodDays is used when a style verdict is saved without
// an explicit analysis window.
const DefaultAnalysisPeriodDays = 7
