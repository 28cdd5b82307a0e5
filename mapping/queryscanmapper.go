package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
	"github.com/sharedtable/mtdynamo/tenant"
)

// QueryAndScanMapper rewrites query and scan requests: it resolves the
// target index, maps key-condition and filter expressions, substitutes the
// physical index name, maps the exclusive start key, and for scans adds the
// filter that fences the request into the tenant's key range.
type QueryAndScanMapper struct {
	tm *TableMapping
}

func (m *QueryAndScanMapper) ApplyToQuery(ctx context.Context, in *dynamodb.QueryInput) error {
	_, keyMappings, physicalIndex, err := m.tm.targetIndex(aws.ToString(in.IndexName))
	if err != nil {
		return err
	}
	if in.IndexName != nil {
		in.IndexName = aws.String(physicalIndex)
	}
	w := &queryRequestWrapper{in: in}
	if err := m.tm.ConditionMapper().applyForKeys(ctx, w, keyMappings); err != nil {
		return err
	}
	if in.ExclusiveStartKey != nil {
		esk, err := m.tm.ItemMapper().Apply(ctx, in.ExclusiveStartKey)
		if err != nil {
			return err
		}
		in.ExclusiveStartKey = esk
	}
	return nil
}

func (m *QueryAndScanMapper) ApplyToScan(ctx context.Context, in *dynamodb.ScanInput) error {
	virtualKeys, keyMappings, physicalIndex, err := m.tm.targetIndex(aws.ToString(in.IndexName))
	if err != nil {
		return err
	}
	// Paging recomputes the cursor from returned items, so the projection
	// must include the target index's key attributes.
	if err := checkProjectionContainsKey(in, virtualKeys); err != nil {
		return err
	}
	if in.IndexName != nil {
		in.IndexName = aws.String(physicalIndex)
	}
	w := &scanRequestWrapper{in: in}
	if err := m.tm.ConditionMapper().applyForKeys(ctx, w, keyMappings); err != nil {
		return err
	}
	hashMapping := keyMappings[virtualKeys.PartitionKey.Name]
	if in.ExclusiveStartKey != nil {
		if _, ok := in.ExclusiveStartKey[hashMapping.Target.Name]; ok && hashMapping.Target.Name != hashMapping.Source.Name {
			// A cursor keyed by the physical hash attribute is a resumption
			// cursor handed out by a soft-time-limited scan. It is already
			// in physical form and passes through untouched.
		} else {
			esk, err := m.tm.ItemMapper().Apply(ctx, in.ExclusiveStartKey)
			if err != nil {
				return err
			}
			in.ExclusiveStartKey = esk
		}
	}
	return m.addTenantFilter(ctx, w, hashMapping)
}

// addTenantFilter AND-composes a begins_with predicate on the target hash
// key with any caller filter, so a scan of the shared physical table never
// surfaces another tenant's rows.
func (m *QueryAndScanMapper) addTenantFilter(ctx context.Context, req RequestWrapper, hashMapping FieldMapping) error {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return err
	}
	var prefixValue types.AttributeValue
	switch hashMapping.Target.Kind {
	case table.KeyKindS:
		prefix, perr := EncodeString(tn, m.tm.virtual.Name, "")
		if perr != nil {
			return perr
		}
		prefixValue = &types.AttributeValueMemberS{Value: prefix}
	case table.KeyKindB:
		prefix, perr := EncodeBinary(tn, m.tm.virtual.Name, nil)
		if perr != nil {
			return perr
		}
		prefixValue = &types.AttributeValueMemberB{Value: prefix}
	default:
		return mterror.Newf(mterror.KindInternal, "physical hash key %q has kind %q", hashMapping.Target.Name, hashMapping.Target.Kind)
	}

	nameAlias := freshScanAlias(req.ExpressionAttributeNames(), "#mt_hash")
	req.PutExpressionAttributeName(nameAlias, hashMapping.Target.Name)
	valueAlias := freshScanValueAlias(req.ExpressionAttributeValues(), ":mt_prefix")
	req.PutExpressionAttributeValue(valueAlias, prefixValue)

	clause := fmt.Sprintf("begins_with(%s, %s)", nameAlias, valueAlias)
	if existing, ferr := req.FilterExpression(); ferr == nil && existing != nil && *existing != "" {
		clause = "(" + *existing + ") and " + clause
	}
	return req.SetFilterExpression(clause)
}

func freshScanAlias(names map[string]string, base string) string {
	alias := base
	for i := 2; ; i++ {
		if _, taken := names[alias]; !taken {
			return alias
		}
		alias = fmt.Sprintf("%s%d", base, i)
	}
}

func freshScanValueAlias(values map[string]types.AttributeValue, base string) string {
	alias := base
	for i := 2; ; i++ {
		if _, taken := values[alias]; !taken {
			return alias
		}
		alias = fmt.Sprintf("%s%d", base, i)
	}
}

// checkProjectionContainsKey verifies that an explicit projection includes
// the target index's key attributes. The check is a plain substring and
// membership test over the projection text and the alias table, not a
// parser, so an attribute whose name contains the key name as a substring
// also passes.
func checkProjectionContainsKey(in *dynamodb.ScanInput, keys table.PrimaryKeyDefinition) error {
	if in.ProjectionExpression == nil && len(in.AttributesToGet) == 0 {
		return nil
	}
	if !projectionContains(in, keys.PartitionKey.Name) {
		return mterror.Newf(mterror.KindInvalidArgument, "multitenant scans must include key attribute %q in the projection", keys.PartitionKey.Name)
	}
	if keys.SortKey.Name != "" && !projectionContains(in, keys.SortKey.Name) {
		return mterror.Newf(mterror.KindInvalidArgument, "multitenant scans must include key attribute %q in the projection", keys.SortKey.Name)
	}
	return nil
}

func projectionContains(in *dynamodb.ScanInput, key string) bool {
	if in.ProjectionExpression != nil {
		projection := *in.ProjectionExpression
		for alias, name := range in.ExpressionAttributeNames {
			if name == key && strings.Contains(projection, alias) {
				return true
			}
		}
		if strings.Contains(projection, key) {
			return true
		}
	}
	for _, attr := range in.AttributesToGet {
		if attr == key {
			return true
		}
	}
	return false
}
