// Package queryir provides a small query intermediate representation for
// selecting stored component revisions.
//
// A Query is a Select over the revision log with an optional Predicate
// filter. The IR is backend neutral; internal/querysql compiles it to
// parameterized SQLite.
//
// Query and Predicate are sealed interfaces using the marker method
// pattern; only types in this package implement them, which keeps type
// switches in backends exhaustive.
//
// Filters can be written in a compact text form, one term per condition:
//
//	name=demo.Account      exact match
//	name^=demo.            prefix match
//	layer!=base            negated match
//	behaviors>=3           numeric comparison on the behaviors column
//
// Parse joins terms with And.
package queryir
