package core

type SchemaType int

const (
	SchemaFul SchemaType = iota
	SchemaLess
)

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		SchemaType SchemaType
		ChunkStart int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of the ResultStream iterator
	Row    []any
	Header []string

	// Meta holds metadata
	Meta struct {
		// type of schema (schemaful or schemaless)
		SchemaType SchemaType
	}

	// ResultStream is a result from an executed query in form of an iterator
	ResultStream interface {
		Meta() *Meta
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)

type StructureType int

const (
	StructureTypeNone StructureType = iota
	StructureTypeDataset
	StructureTypeTable
	StructureTypeView
)

func (s StructureType) String() string {
	switch s {
	case StructureTypeDataset:
		return "dataset"
	case StructureTypeTable:
		return "table"
	case StructureTypeView:
		return "view"
	default:
		return ""
	}
}

// Structure represents a node in the dataset/table tree of a connection.
type Structure struct {
	// Name to be displayed
	Name   string        `json:"name"`
	Schema string        `json:"schema"`
	Type   StructureType `json:"type"`
	// Children layout nodes
	Children []*Structure `json:"children,omitempty"`
}
