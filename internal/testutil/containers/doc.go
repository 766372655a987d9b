//go:build integration

// Package containers starts throwaway backing services for integration
// tests. Build with -tags integration.
package containers
