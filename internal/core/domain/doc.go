// Package domain defines the core business entities for the knowledge base.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entry: One knowledge-base record (metadata header plus body)
//   - Timestamp: Record creation time with a tolerant JSON codec
//   - Fingerprint: Deterministic identity shared by the local store and the remote
//   - SyncDecision / SyncState: The reconciler's per-record state machine
//   - NotionSettings / SyncSettings: Resolved configuration values
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
