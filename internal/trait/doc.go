// Package trait implements the trait derivation/extraction engine.
//
// A trait is a piece of derivable component metadata: a Behavior (method or
// event signature) and the sub-traits it owns (ReturnValue, Parameter,
// Throwee, Implementation). Every trait instance has a Mode:
//
//   - Resolved: fully computed, all attributes authoritative
//   - Derivation: a delta applied to a resolved base (subclassing)
//   - Modification: a delta applied at the same level (customization)
//
// Two algorithms tie the model together:
//
//	derived, err := base.Resolve(delta, owner, errs)  // base + delta
//	delta, err   := derived.Extract(base, owner, errs) // derived - base
//
// Resolve and Extract never fail on ordinary mismatches between a delta and
// its base. The base always wins; the mismatch is recorded in the ErrorList
// as a diagnostic. A *ComponentError is returned only for structurally
// corrupt input.
//
// OWNERSHIP:
//
// A Behavior owns its sub-traits by value. There are no back-pointers; rules
// that depend on the containing component receive an Owner. The Component
// type is the arena that owns Behaviors keyed by signature and hosts the
// two-phase Propose/Apply mutation protocol.
//
// FLAGS:
//
// Attributes are carried as Field values (value + "specified" shadow). The
// shadow is meaningful only for deltas: it separates "no opinion at this
// level" from "explicitly set to the zero value". Flags.Pack produces the
// integer word used by the persistence codecs.
//
// CONCURRENCY:
//
// Resolve and Extract are synchronous and assume exclusive access to their
// inputs for the duration of the call. Component serializes Propose/Apply.
package trait
