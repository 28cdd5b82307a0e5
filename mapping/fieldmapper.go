package mapping

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
	"github.com/sharedtable/mtdynamo/tenant"
)

// FieldMapper applies and reverses the tenant prefix on individual attribute
// values, coercing between scalar kinds where the virtual and physical
// columns differ. The prefix qualifier is always the virtual table name.
type FieldMapper struct {
	virtualTableName string
}

func NewFieldMapper(virtualTableName string) *FieldMapper {
	return &FieldMapper{virtualTableName: virtualTableName}
}

// Apply maps a virtual attribute value to its physical form. The output kind
// equals the mapping's target kind. Context-aware mappings read the tenant
// from ctx and prepend the prefix.
func (m *FieldMapper) Apply(ctx context.Context, fm FieldMapping, av types.AttributeValue) (types.AttributeValue, error) {
	str, raw, err := scalarOf(fm.Source.Kind, av)
	if err != nil {
		return nil, err
	}
	qualify := fm.ContextAware
	var tn string
	if qualify {
		if tn, err = tenant.Required(ctx); err != nil {
			return nil, err
		}
	}
	switch fm.Target.Kind {
	case table.KeyKindS:
		if fm.Source.Kind == table.KeyKindB {
			return nil, mterror.Newf(mterror.KindUnsupported, "cannot map binary field %q to string column", fm.Source.Name)
		}
		if !qualify {
			return &types.AttributeValueMemberS{Value: str}, nil
		}
		encoded, err := EncodeString(tn, m.virtualTableName, str)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberS{Value: encoded}, nil
	case table.KeyKindB:
		if fm.Source.Kind != table.KeyKindB {
			raw = []byte(str)
		}
		if !qualify {
			return &types.AttributeValueMemberB{Value: raw}, nil
		}
		encoded, err := EncodeBinary(tn, m.virtualTableName, raw)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberB{Value: encoded}, nil
	case table.KeyKindN:
		if qualify || fm.Source.Kind != table.KeyKindN {
			return nil, mterror.Newf(mterror.KindUnsupported, "cannot map field %q of kind %s to numeric column", fm.Source.Name, fm.Source.Kind)
		}
		return &types.AttributeValueMemberN{Value: str}, nil
	default:
		return nil, mterror.Newf(mterror.KindUnsupported, "unsupported target kind %q for field %q", fm.Target.Kind, fm.Target.Name)
	}
}

// Reverse maps a physical attribute value back to its virtual form. The
// mapping passed in must already be reversed (source = physical field).
// Fails with Corrupt if the encoded value lacks the expected delimiters or
// was written by a different tenant.
func (m *FieldMapper) Reverse(ctx context.Context, fm FieldMapping, av types.AttributeValue) (types.AttributeValue, error) {
	str, raw, err := scalarOf(fm.Source.Kind, av)
	if err != nil {
		return nil, err
	}
	if fm.ContextAware {
		tn, err := tenant.Required(ctx)
		if err != nil {
			return nil, err
		}
		var decodedTenant, decodedIndex string
		switch fm.Source.Kind {
		case table.KeyKindB:
			decodedTenant, decodedIndex, raw, err = DecodeBinary(raw)
			str = string(raw)
		default:
			decodedTenant, decodedIndex, str, err = DecodeString(str)
			raw = []byte(str)
		}
		if err != nil {
			return nil, err
		}
		if decodedTenant != tn {
			return nil, mterror.Newf(mterror.KindCorrupt, "encoded value belongs to tenant %q, request context is %q", decodedTenant, tn)
		}
		if decodedIndex != m.virtualTableName {
			return nil, mterror.Newf(mterror.KindCorrupt, "encoded value belongs to table %q, mapping is for %q", decodedIndex, m.virtualTableName)
		}
	}
	switch fm.Target.Kind {
	case table.KeyKindS:
		return &types.AttributeValueMemberS{Value: str}, nil
	case table.KeyKindN:
		return &types.AttributeValueMemberN{Value: str}, nil
	case table.KeyKindB:
		return &types.AttributeValueMemberB{Value: raw}, nil
	default:
		return nil, mterror.Newf(mterror.KindUnsupported, "unsupported target kind %q for field %q", fm.Target.Kind, fm.Target.Name)
	}
}

// scalarOf extracts the scalar payload of av, requiring it to match the
// declared kind. Returns both string and byte views; for S and N values the
// byte view is nil.
func scalarOf(kind table.KeyKind, av types.AttributeValue) (string, []byte, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		if kind != table.KeyKindS {
			return "", nil, convErr(kind, av)
		}
		return v.Value, nil, nil
	case *types.AttributeValueMemberN:
		if kind != table.KeyKindN {
			return "", nil, convErr(kind, av)
		}
		return v.Value, nil, nil
	case *types.AttributeValueMemberB:
		if kind != table.KeyKindB {
			return "", nil, convErr(kind, av)
		}
		return "", v.Value, nil
	default:
		return "", nil, convErr(kind, av)
	}
}

func convErr(kind table.KeyKind, av types.AttributeValue) error {
	return mterror.Newf(mterror.KindUnsupported, "attribute value of type %T could not be converted to kind %s", av, kind)
}
