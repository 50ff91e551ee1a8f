// Package digest computes content-addressed identities for trait trees.
//
// A digest is SHA-256 over RFC 8785 canonical JSON with a domain prefix:
//
//	SHA256(domain + 0x00 + canonical)
//
// Canonical JSON sorts object keys by UTF-16 code units, never escapes
// HTML characters, NFC-normalizes strings and rejects floats. Two trees
// with equal digests serialize byte-identically, which the store uses to
// skip redundant writes and the harness uses for golden output.
package digest
