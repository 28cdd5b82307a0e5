package mapping

import "github.com/sharedtable/mtdynamo/table"

// IndexType distinguishes mappings for the table's own primary key from
// mappings for a secondary index key.
type IndexType int

const (
	TableIndex IndexType = iota
	SecondaryIndex
)

// Field names one attribute together with its scalar kind.
type Field struct {
	Name string
	Kind table.KeyKind
}

// FieldMapping ties one virtual key attribute to one physical key attribute.
// ContextAware mappings carry the tenant prefix on the value; others only
// rename and coerce the kind.
type FieldMapping struct {
	Source            Field
	Target            Field
	VirtualIndexName  string
	PhysicalIndexName string
	IndexType         IndexType
	ContextAware      bool
}

// Reverse swaps source and target, yielding the mapping used on the read
// path.
func (m FieldMapping) Reverse() FieldMapping {
	m.Source, m.Target = m.Target, m.Source
	return m
}
