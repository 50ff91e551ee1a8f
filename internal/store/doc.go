// Package store provides SQLite-backed storage for components.
//
// Components are saved per layer: the base layer holds resolved
// components and each customization layer holds the delta it applies.
// Every save appends a revision; the latest revision of a (name, layer)
// pair is the current state.
//
// Encoded components are content-addressed by their digest (see
// internal/digest) so identical states are stored once. Resolves are
// memoized by (base digest, delta digest), which lets Rebuild replay a
// layer chain without recomputing steps it has already seen.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All reads order by seq, never by wall time.
package store
