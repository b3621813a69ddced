// Package fieldbus is the boundary between the simulation core and the
// physical I/O points of the line. The core talks to a Device only to
// mirror state; no scheduling decision depends on a field read.
package fieldbus

// A Device reads and writes boolean I/O points keyed by logical names. A
// real implementation maps each key onto a physical address of the field
// bus; SimDevice keeps them in memory.
type Device interface {
	ReadBool(key string) (bool, error)
	WriteBool(key string, value bool) error
}
