// Package refdb holds the reference genome database: one shingle signature
// per named reference plus the superset used to drop sample shingles that
// cannot match anything.
//
// A Database grows through Load/LoadPath calls and becomes read-only after
// Seal. After Seal it is safe for concurrent readers without locking.
package refdb
