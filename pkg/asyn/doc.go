// Package asyn is an in-process parameter table and record database.
//
// A Port plays the part of the device-support framework: the driver creates
// one parameter per record, loads each record from a template name and a
// flat key=value parameter string, and later receives value requests keyed
// by (address, parameter index) through a Handler. Stream records are fed
// by array callbacks and served from the last published value.
//
// Records are addressed by their full process-variable name, the P and R
// parameters joined by a colon.
package asyn
