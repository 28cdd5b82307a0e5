package mapping

import (
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
)

// TableMapping binds one virtual table to its chosen physical table and
// holds the field mappings used on the write and read paths. A mapping is
// built once per (tenant, virtual table), is immutable after construction,
// and its mappers are stateless and safe to share.
type TableMapping struct {
	virtual  table.TableDefinition
	physical table.TableDefinition

	fieldMapper *FieldMapper

	// apply is keyed by virtual attribute name; one virtual attribute can
	// feed several physical columns (table key plus index keys).
	apply map[string][]FieldMapping
	// reverse is keyed by physical attribute name, values already reversed.
	reverse map[string]FieldMapping
	// tableKeys holds the primary-key mappings only, keyed by virtual name.
	tableKeys map[string]FieldMapping
	// writeKeys dedupes apply to one mapping per virtual attribute, the
	// table-key mapping when the attribute has one, else its first index
	// mapping. Write-request expressions are rewritten against this set.
	writeKeys map[string]FieldMapping
	// indexes is keyed by virtual secondary index name.
	indexes map[string]indexMapping
}

type indexMapping struct {
	virtual  table.SecondaryIndexDefinition
	physical table.SecondaryIndexDefinition
	// keys maps virtual attribute name to the mapping for this index.
	keys map[string]FieldMapping
}

func (t *TableMapping) VirtualTable() table.TableDefinition  { return t.virtual }
func (t *TableMapping) PhysicalTable() table.TableDefinition { return t.physical }

func (t *TableMapping) ItemMapper() *ItemMapper { return &ItemMapper{tm: t} }
func (t *TableMapping) KeyMapper() *KeyMapper   { return &KeyMapper{ItemMapper{tm: t, keysOnly: true}} }

func (t *TableMapping) ConditionMapper() *ConditionMapper {
	return &ConditionMapper{tm: t}
}

func (t *TableMapping) QueryAndScanMapper() *QueryAndScanMapper {
	return &QueryAndScanMapper{tm: t}
}

// indexFor resolves a virtual secondary index name.
func (t *TableMapping) indexFor(virtualIndexName string) (indexMapping, error) {
	im, ok := t.indexes[virtualIndexName]
	if !ok {
		return indexMapping{}, mterror.Newf(mterror.KindInvalidArgument, "table %q has no index %q", t.virtual.Name, virtualIndexName)
	}
	return im, nil
}

// targetIndex resolves the key attributes and mappings a query or scan
// operates on: the primary key when no index is named, otherwise the named
// secondary index. Returns the virtual-side key definition, the matching
// field mappings keyed by virtual name, and the physical index name (empty
// for the primary index).
func (t *TableMapping) targetIndex(virtualIndexName string) (table.PrimaryKeyDefinition, map[string]FieldMapping, string, error) {
	if virtualIndexName == "" {
		return t.virtual.KeyDefinitions, t.tableKeys, "", nil
	}
	im, err := t.indexFor(virtualIndexName)
	if err != nil {
		return table.PrimaryKeyDefinition{}, nil, "", err
	}
	return im.virtual.KeyDefinitions, im.keys, im.physical.Name, nil
}
