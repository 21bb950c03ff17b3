// Package storage opens the destinations that export tasks write to.
//
// A target is either a file path, which is created or truncated and owned by
// exactly one task, or "-" (or ""), the process's standard output. Standard
// output is shared: every Write to it is serialized, so tasks writing whole
// pages interleave at page boundaries only.
package storage
