// Package tsql implements the columnar type system and value model: the
// closed type algebra, attributes, owned values and views, congruence vs.
// equality, and schema fingerprints.
package tsql

// Kind is the top-level constructor of a Type.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindUint64
	KindDouble
	KindDuration
	KindTime
	KindString
	KindBlob
	KindIP
	KindSubnet
	KindPattern
	KindEnum
	KindList
	KindMap
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindDouble:
		return "double"
	case KindDuration:
		return "duration"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindIP:
		return "ip"
	case KindSubnet:
		return "subnet"
	case KindPattern:
		return "pattern"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// isPrimitive reports whether k is one of the scalar kinds enumerated in
// spec §3.1 (everything that isn't pattern, enum, list, map or record).
func (k Kind) isPrimitive() bool {
	switch k {
	case KindNull, KindBool, KindInt64, KindUint64, KindDouble, KindDuration,
		KindTime, KindString, KindBlob, KindIP, KindSubnet:
		return true
	default:
		return false
	}
}
