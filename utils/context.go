// Package utils provides utility functions for the application.
package utils

// CtxKey is the type for request-scoped context values
type CtxKey string

// Request-scoped context keys set by the HTTP layer
const (
	RequestIDKey CtxKey = "request_id"
	UserAgentKey CtxKey = "user_agent"
	IPAddressKey CtxKey = "ip_address"
	EndpointKey  CtxKey = "endpoint"
)
