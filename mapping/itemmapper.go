package mapping

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ItemMapper rewrites whole items between virtual and physical form: key
// attributes are prefix-encoded and renamed to the physical column names,
// everything else passes through unchanged.
type ItemMapper struct {
	tm *TableMapping
	// keysOnly restricts apply to the table's primary-key mappings. Used for
	// request keys, where secondary-index columns must not be fabricated.
	keysOnly bool
}

// KeyMapper is ItemMapper restricted to primary-key attributes. It is used
// for GetItem/BatchGetItem keys and for mapping unprocessed keys back.
type KeyMapper struct {
	ItemMapper
}

// Apply maps a virtual item (or key) to its physical form. Fails with
// InvalidArgument when a required primary-key attribute is absent.
func (m *ItemMapper) Apply(ctx context.Context, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	for name := range m.tm.tableKeys {
		if _, ok := item[name]; !ok {
			return nil, mterror.Newf(mterror.KindInvalidArgument, "item for table %q is missing key attribute %q", m.tm.virtual.Name, name)
		}
	}
	out := make(map[string]types.AttributeValue, len(item))
	for _, name := range sortedKeys(item) {
		av := item[name]
		var fms []FieldMapping
		if m.keysOnly {
			if fm, ok := m.tm.tableKeys[name]; ok {
				fms = []FieldMapping{fm}
			}
		} else {
			fms = m.tm.apply[name]
		}
		if len(fms) == 0 {
			out[name] = av
			continue
		}
		for _, fm := range fms {
			mapped, err := m.tm.fieldMapper.Apply(ctx, fm, av)
			if err != nil {
				return nil, err
			}
			out[fm.Target.Name] = mapped
		}
	}
	return out, nil
}

// Reverse maps a physical item (or key) back to its virtual form, undoing
// both the rename and the prefix encoding.
func (m *ItemMapper) Reverse(ctx context.Context, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if item == nil {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for _, name := range sortedKeys(item) {
		av := item[name]
		rfm, ok := m.tm.reverse[name]
		if !ok {
			out[name] = av
			continue
		}
		restored, err := m.tm.fieldMapper.Reverse(ctx, rfm, av)
		if err != nil {
			return nil, err
		}
		out[rfm.Target.Name] = restored
	}
	return out, nil
}

func sortedKeys(item map[string]types.AttributeValue) []string {
	names := maps.Keys(item)
	slices.Sort(names)
	return names
}
