// Package driver derives records from a register tree and serves them.
//
// Init walks the tree once, resolves a record-name prefix for every leaf,
// classifies each capability the leaf exposes and hands the resulting
// descriptors to a Sink. The parameters created on the way are bound
// write-once to their register handles; after Init the driver answers
// runtime reads and writes through those bindings, runs one reader task per
// stream, and saves or loads register configuration in the background.
package driver
