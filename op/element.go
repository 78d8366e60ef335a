// Package op defines the operator model of spec §4.D: the Operator
// interface, element types, location, and the optimisation contract.
package op

// ElementType is the coarse type at an operator boundary (spec §3.4/GLOSSARY).
type ElementType uint8

const (
	Void ElementType = iota
	Bytes
	Events
)

func (e ElementType) String() string {
	switch e {
	case Void:
		return "void"
	case Bytes:
		return "bytes"
	case Events:
		return "events"
	default:
		return "unknown"
	}
}

// Location is where an operator must run (spec §3.4).
type Location uint8

const (
	Anywhere Location = iota
	Local
	Remote
)

func (l Location) String() string {
	switch l {
	case Anywhere:
		return "anywhere"
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}
