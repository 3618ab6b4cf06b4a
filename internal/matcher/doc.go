// Package matcher turns an input file into the set of its shingles that occur
// in the reference superset.
//
// Chunks read from the file are submitted to a process-wide Pool as soon as
// they are cut; the reader never waits for earlier chunks. Workers share
// read-only access to the database and union their results into one MatchSet.
package matcher
