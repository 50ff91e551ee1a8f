// Package codec persists trait trees in two lossless forms.
//
// The binary form is a compact big-endian stream used by the store. Each
// behavior is written as: bookkeeping, name, flags, previous flags, return
// value, parameters, exceptions, implementations, override-base and the
// base-implementation count. Flags travel as the packed word produced by
// trait.Flags.Pack.
//
// The XML form mirrors the same structure with one element per part and
// carries a human-readable description of each flag word in a desc
// attribute.
//
// Both forms decode empty collections as nil. Resolve-only state (the
// previous override-base marker) is never written.
package codec
