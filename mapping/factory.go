package mapping

import (
	"strings"

	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
)

// CreateTableRequestFactory enumerates the fixed set of physical tables and
// chooses one for each virtual schema. The choice must be deterministic from
// the schema alone.
type CreateTableRequestFactory interface {
	PhysicalTables() []table.TableDefinition
	PhysicalTableFor(virtual table.TableDefinition) (table.TableDefinition, error)
}

// NewSignatureTableFactory builds the default factory: it picks the first
// physical table, in declaration order, whose key signature is compatible
// with the virtual schema. Physical hash keys must be of kind S or B.
func NewSignatureTableFactory(physicalTables ...table.TableDefinition) (CreateTableRequestFactory, error) {
	if len(physicalTables) == 0 {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "at least one physical table is required")
	}
	for _, pt := range physicalTables {
		if k := pt.KeyDefinitions.PartitionKey.Kind; k != table.KeyKindS && k != table.KeyKindB {
			return nil, mterror.Newf(mterror.KindInvalidArgument, "physical table %q hash key kind must be S or B, got %q", pt.Name, k)
		}
		if strings.ContainsRune(pt.Name, Delimiter) {
			return nil, mterror.Newf(mterror.KindInvalidArgument, "physical table name %q contains delimiter %q", pt.Name, Delimiter)
		}
	}
	return &signatureTableFactory{tables: physicalTables}, nil
}

type signatureTableFactory struct {
	tables []table.TableDefinition
}

func (f *signatureTableFactory) PhysicalTables() []table.TableDefinition {
	out := make([]table.TableDefinition, len(f.tables))
	copy(out, f.tables)
	return out
}

func (f *signatureTableFactory) PhysicalTableFor(virtual table.TableDefinition) (table.TableDefinition, error) {
	for _, pt := range f.tables {
		if compatible(virtual, pt) {
			return pt, nil
		}
	}
	return table.TableDefinition{}, mterror.Newf(mterror.KindNoPhysicalTable,
		"no physical table matches schema of virtual table %q", virtual.Name)
}

func compatible(virtual, physical table.TableDefinition) bool {
	if !hashCompatible(virtual.KeyDefinitions.PartitionKey.Kind, physical.KeyDefinitions.PartitionKey.Kind) {
		return false
	}
	if !rangeCompatible(virtual.KeyDefinitions.SortKey, physical.KeyDefinitions.SortKey) {
		return false
	}
	_, ok := assignIndexes(virtual, physical)
	return ok
}

// hashCompatible: a physical S column holds virtual S and N values (numbers
// coerce to their canonical decimal string); a physical B column holds any
// scalar as bytes.
func hashCompatible(virtualKind, physicalKind table.KeyKind) bool {
	switch physicalKind {
	case table.KeyKindS:
		return virtualKind == table.KeyKindS || virtualKind == table.KeyKindN
	case table.KeyKindB:
		return true
	default:
		return false
	}
}

// rangeCompatible: absent on both sides, or present on both with the same
// kind. Range values are not prefixed, so kinds must match exactly.
func rangeCompatible(virtualSort, physicalSort table.KeyDef) bool {
	if virtualSort.Name == "" {
		return physicalSort.Name == ""
	}
	return physicalSort.Name != "" && virtualSort.Kind == physicalSort.Kind
}

func indexShapeCompatible(vsi, psi table.SecondaryIndexDefinition) bool {
	if !hashCompatible(vsi.KeyDefinitions.PartitionKey.Kind, psi.KeyDefinitions.PartitionKey.Kind) {
		return false
	}
	if !rangeCompatible(vsi.KeyDefinitions.SortKey, psi.KeyDefinitions.SortKey) {
		return false
	}
	return psi.Projection == table.ProjectionAll || psi.Projection == vsi.Projection
}

type indexPair struct {
	virtual  table.SecondaryIndexDefinition
	physical table.SecondaryIndexDefinition
}

// assignIndexes maps each virtual secondary index, in declaration order, to
// the first unused compatible physical index. The greedy assignment keeps
// the mapping deterministic.
func assignIndexes(virtual, physical table.TableDefinition) ([]indexPair, bool) {
	used := make(map[string]bool, len(physical.SecondaryIndexes))
	pairs := make([]indexPair, 0, len(virtual.SecondaryIndexes))
	for _, vsi := range virtual.SecondaryIndexes {
		assigned := false
		for _, psi := range physical.SecondaryIndexes {
			if used[psi.Name] || !indexShapeCompatible(vsi, psi) {
				continue
			}
			used[psi.Name] = true
			pairs = append(pairs, indexPair{virtual: vsi, physical: psi})
			assigned = true
			break
		}
		if !assigned {
			return nil, false
		}
	}
	return pairs, true
}

// TableMappingFactory builds TableMappings from virtual schemas.
type TableMappingFactory struct {
	createTableRequestFactory CreateTableRequestFactory
}

func NewTableMappingFactory(f CreateTableRequestFactory) *TableMappingFactory {
	return &TableMappingFactory{createTableRequestFactory: f}
}

func (f *TableMappingFactory) CreateTableRequestFactory() CreateTableRequestFactory {
	return f.createTableRequestFactory
}

// TableMapping chooses the physical table for the virtual schema and builds
// the full set of field mappings. The result depends only on the schema, not
// on any tenant.
func (f *TableMappingFactory) TableMapping(virtual table.TableDefinition) (*TableMapping, error) {
	if strings.ContainsRune(virtual.Name, Delimiter) {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "virtual table name %q contains delimiter %q", virtual.Name, Delimiter)
	}
	physical, err := f.createTableRequestFactory.PhysicalTableFor(virtual)
	if err != nil {
		return nil, err
	}

	tm := &TableMapping{
		virtual:     virtual,
		physical:    physical,
		fieldMapper: NewFieldMapper(virtual.Name),
		apply:       make(map[string][]FieldMapping),
		reverse:     make(map[string]FieldMapping),
		tableKeys:   make(map[string]FieldMapping),
		indexes:     make(map[string]indexMapping),
	}

	addMapping := func(dst map[string]FieldMapping, fm FieldMapping) {
		tm.apply[fm.Source.Name] = append(tm.apply[fm.Source.Name], fm)
		if _, exists := tm.reverse[fm.Target.Name]; !exists {
			tm.reverse[fm.Target.Name] = fm.Reverse()
		}
		dst[fm.Source.Name] = fm
	}

	addMapping(tm.tableKeys, FieldMapping{
		Source:            Field{Name: virtual.KeyDefinitions.PartitionKey.Name, Kind: virtual.KeyDefinitions.PartitionKey.Kind},
		Target:            Field{Name: physical.KeyDefinitions.PartitionKey.Name, Kind: physical.KeyDefinitions.PartitionKey.Kind},
		VirtualIndexName:  virtual.Name,
		PhysicalIndexName: physical.Name,
		IndexType:         TableIndex,
		ContextAware:      true,
	})
	if virtual.HasSortKey() {
		addMapping(tm.tableKeys, FieldMapping{
			Source:            Field{Name: virtual.KeyDefinitions.SortKey.Name, Kind: virtual.KeyDefinitions.SortKey.Kind},
			Target:            Field{Name: physical.KeyDefinitions.SortKey.Name, Kind: physical.KeyDefinitions.SortKey.Kind},
			VirtualIndexName:  virtual.Name,
			PhysicalIndexName: physical.Name,
			IndexType:         TableIndex,
			ContextAware:      false,
		})
	}

	pairs, ok := assignIndexes(virtual, physical)
	if !ok {
		// PhysicalTableFor already checked assignability.
		return nil, mterror.Newf(mterror.KindInternal, "index assignment failed for table %q on %q", virtual.Name, physical.Name)
	}
	for _, pair := range pairs {
		im := indexMapping{
			virtual:  pair.virtual,
			physical: pair.physical,
			keys:     make(map[string]FieldMapping, 2),
		}
		addMapping(im.keys, FieldMapping{
			Source:            Field{Name: pair.virtual.KeyDefinitions.PartitionKey.Name, Kind: pair.virtual.KeyDefinitions.PartitionKey.Kind},
			Target:            Field{Name: pair.physical.KeyDefinitions.PartitionKey.Name, Kind: pair.physical.KeyDefinitions.PartitionKey.Kind},
			VirtualIndexName:  pair.virtual.Name,
			PhysicalIndexName: pair.physical.Name,
			IndexType:         SecondaryIndex,
			ContextAware:      true,
		})
		if pair.virtual.KeyDefinitions.SortKey.Name != "" {
			addMapping(im.keys, FieldMapping{
				Source:            Field{Name: pair.virtual.KeyDefinitions.SortKey.Name, Kind: pair.virtual.KeyDefinitions.SortKey.Kind},
				Target:            Field{Name: pair.physical.KeyDefinitions.SortKey.Name, Kind: pair.physical.KeyDefinitions.SortKey.Kind},
				VirtualIndexName:  pair.virtual.Name,
				PhysicalIndexName: pair.physical.Name,
				IndexType:         SecondaryIndex,
				ContextAware:      false,
			})
		}
		tm.indexes[pair.virtual.Name] = im
	}

	// Table-key mappings were added first, so they win the dedupe.
	tm.writeKeys = make(map[string]FieldMapping, len(tm.apply))
	for name, fms := range tm.apply {
		tm.writeKeys[name] = fms[0]
	}

	return tm, nil
}
