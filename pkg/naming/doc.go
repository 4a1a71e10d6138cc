// Package naming derives record-name prefixes from register-tree paths.
//
// A prefix is built from the parent path of a leaf, walking from the segment
// nearest the leaf toward the root. Each segment is matched by substring
// against two dictionaries:
//
//   - the general dictionary substitutes the segment and the walk continues
//   - the top dictionary substitutes the segment and ends the walk
//   - a segment matching neither is cut to three characters and recorded as
//     a miss so operators can extend the dictionaries
//
// Array indices are kept after the substituted name, so "Channel[3]" with no
// dictionary match becomes "Cha3". Segments are joined with ":" and the
// prefix ends with ":".
package naming
