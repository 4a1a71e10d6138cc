// Package cpsw models the register tree exposed by the register-access
// middleware.
//
// A tree is a hierarchy of hubs and leaves. Hubs group children and may be
// replicated (Nelms > 1), in which case each instance is addressed with an
// index suffix such as "Ch[3]". Leaves expose capabilities that are attached
// on demand:
//
//   - OpenScalarRO for readable registers
//   - OpenScalarRW for writable registers
//   - OpenCommand for executable command sequences
//   - OpenStream for byte streams
//
// An Open call that does not apply to the leaf returns ErrNotSupported. This
// is ordinary control flow for callers that probe every capability.
//
// MemTree is an in-memory Tree built from a YAML description. It simulates
// register storage, command sequences and stream data, and supports bulk
// DumpConfig/LoadConfig of writable register values.
package cpsw
