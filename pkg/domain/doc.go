// Package domain defines the core business types for the organization
// policy engine.
//
// This package contains pure domain logic with ZERO external dependencies
// beyond the Go standard library and uuid. All types in this package are:
//
// - Independent of infrastructure (no database, HTTP, gRPC, etc.)
// - Technology-agnostic (no framework coupling)
// - Testable in isolation without mocks
//
// Other packages (policy, storage, api) implement behavior over these types
// and depend on them. The dependency direction is always:
//
//	Infrastructure → Domain (CORRECT)
//	Domain → Infrastructure (FORBIDDEN)
package domain
