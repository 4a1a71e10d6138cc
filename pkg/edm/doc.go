// Package edm generates operator screens for a register tree.
//
// The generator walks the tree like the driver does. Every hub below the
// root gets a screen and a button on the menu screen, indented by depth.
// Writable registers are placed in the configuration column with an entry
// and a readback, read-only registers in the status column. Process
// variable names are derived with the same resolver and length budget as
// the driver's records, behind the $(P) macro.
package edm
