package sharedtable

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/table"
)

// fakeDynamoDB is a map-backed stand-in for the physical DynamoDB tables.
// It keeps items in storage-key order so Limit and ExclusiveStartKey behave
// like real pagination, and it evaluates the begins_with filter and the
// equality conditions the layer generates.
type fakeDynamoDB struct {
	mu        sync.Mutex
	tables    map[string]*fakeTable
	scanCalls int
	// holdBackOneKey makes BatchGetItem leave each table's last key
	// unprocessed, the way a throttled backend would.
	holdBackOneKey bool
}

type fakeTable struct {
	def   table.TableDefinition
	order []string
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamoDB(defs ...table.TableDefinition) *fakeDynamoDB {
	f := &fakeDynamoDB{tables: make(map[string]*fakeTable)}
	for _, def := range defs {
		f.tables[def.Name] = &fakeTable{
			def:   def,
			items: make(map[string]map[string]types.AttributeValue),
		}
	}
	return f
}

func (f *fakeDynamoDB) table(name *string) (*fakeTable, error) {
	ft, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, fmt.Errorf("unknown physical table %q", aws.ToString(name))
	}
	return ft, nil
}

func scalarString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	case *types.AttributeValueMemberB:
		return string(v.Value)
	default:
		return fmt.Sprintf("%v", av)
	}
}

func (t *fakeTable) storageKey(item map[string]types.AttributeValue) string {
	key := scalarString(item[t.def.KeyDefinitions.PartitionKey.Name])
	if t.def.KeyDefinitions.SortKey.Name != "" {
		key += "\x00" + scalarString(item[t.def.KeyDefinitions.SortKey.Name])
	}
	return key
}

func (t *fakeTable) put(item map[string]types.AttributeValue) {
	key := t.storageKey(item)
	if _, exists := t.items[key]; !exists {
		i := sort.SearchStrings(t.order, key)
		t.order = append(t.order, "")
		copy(t.order[i+1:], t.order[i:])
		t.order[i] = key
	}
	t.items[key] = item
}

func (t *fakeTable) delete(key string) {
	if _, exists := t.items[key]; !exists {
		return
	}
	delete(t.items, key)
	i := sort.SearchStrings(t.order, key)
	t.order = append(t.order[:i], t.order[i+1:]...)
}

func (t *fakeTable) primaryKeyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		t.def.KeyDefinitions.PartitionKey.Name: item[t.def.KeyDefinitions.PartitionKey.Name],
	}
	if t.def.KeyDefinitions.SortKey.Name != "" {
		key[t.def.KeyDefinitions.SortKey.Name] = item[t.def.KeyDefinitions.SortKey.Name]
	}
	return key
}

func attributeValuesEqual(a, b types.AttributeValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return scalarString(a) == scalarString(b) && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

// evalEqualityCondition handles conjunctions of "ref = :placeholder" terms,
// which is all the layer generates for key conditions.
func evalEqualityCondition(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	for _, term := range strings.Split(expr, " and ") {
		parts := strings.SplitN(term, "=", 2)
		if len(parts) != 2 {
			return false, fmt.Errorf("fake cannot evaluate term %q", term)
		}
		ref := strings.TrimSpace(parts[0])
		placeholder := strings.TrimSpace(parts[1])
		attr := ref
		if strings.HasPrefix(ref, "#") {
			attr = names[ref]
		}
		want, ok := values[placeholder]
		if !ok {
			return false, fmt.Errorf("fake has no value for %q", placeholder)
		}
		if !attributeValuesEqual(item[attr], want) {
			return false, nil
		}
	}
	return true, nil
}

var beginsWithPattern = regexp.MustCompile(`begins_with\((#\w+), (:\w+)\)`)

// evalFilter evaluates the begins_with clause of a generated scan filter and
// ignores any other clauses.
func evalFilter(expr *string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	if expr == nil {
		return true
	}
	m := beginsWithPattern.FindStringSubmatch(*expr)
	if m == nil {
		return true
	}
	attr := names[m[1]]
	prefix := values[m[2]]
	av, ok := item[attr]
	if !ok {
		return false
	}
	switch p := prefix.(type) {
	case *types.AttributeValueMemberS:
		s, ok := av.(*types.AttributeValueMemberS)
		return ok && strings.HasPrefix(s.Value, p.Value)
	case *types.AttributeValueMemberB:
		b, ok := av.(*types.AttributeValueMemberB)
		return ok && strings.HasPrefix(string(b.Value), string(p.Value))
	default:
		return false
	}
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: ft.items[ft.storageKey(params.Key)]}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil {
		existing := ft.items[ft.storageKey(params.Item)]
		ok, cerr := evalEqualityCondition(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing)
		if cerr != nil {
			return nil, cerr
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	ft.put(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

var setTermPattern = regexp.MustCompile(`^\s*([#\w]+)\s*=\s*(:\w+)\s*$`)

func (f *fakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key := ft.storageKey(params.Key)
	existing := ft.items[key]
	if params.ConditionExpression != nil {
		ok, cerr := evalEqualityCondition(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing)
		if cerr != nil {
			return nil, cerr
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	item := make(map[string]types.AttributeValue, len(existing)+2)
	for k, v := range existing {
		item[k] = v
	}
	for k, v := range params.Key {
		item[k] = v
	}
	expr := strings.TrimSpace(aws.ToString(params.UpdateExpression))
	expr = strings.TrimPrefix(expr, "SET ")
	for _, term := range strings.Split(expr, ",") {
		m := setTermPattern.FindStringSubmatch(term)
		if m == nil {
			return nil, fmt.Errorf("fake cannot evaluate update term %q", term)
		}
		attr := m[1]
		if strings.HasPrefix(attr, "#") {
			attr = params.ExpressionAttributeNames[attr]
		}
		item[attr] = params.ExpressionAttributeValues[m[2]]
	}
	ft.put(item)
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	ft.delete(ft.storageKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &dynamodb.BatchGetItemOutput{Responses: make(map[string][]map[string]types.AttributeValue)}
	for name, ka := range params.RequestItems {
		tableName := name
		ft, err := f.table(&tableName)
		if err != nil {
			return nil, err
		}
		keys := ka.Keys
		if f.holdBackOneKey && len(keys) > 1 {
			held := keys[len(keys)-1]
			keys = keys[:len(keys)-1]
			if out.UnprocessedKeys == nil {
				out.UnprocessedKeys = make(map[string]types.KeysAndAttributes)
			}
			out.UnprocessedKeys[name] = types.KeysAndAttributes{Keys: []map[string]types.AttributeValue{held}}
		}
		for _, key := range keys {
			if item, ok := ft.items[ft.storageKey(key)]; ok {
				out.Responses[name] = append(out.Responses[name], item)
			}
		}
	}
	return out, nil
}

func (f *fakeDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	out := &dynamodb.QueryOutput{}
	for _, key := range ft.order {
		item := ft.items[key]
		match, cerr := evalEqualityCondition(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
		if cerr != nil {
			return nil, cerr
		}
		if match {
			out.Items = append(out.Items, item)
		}
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	ft, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	start := 0
	if params.ExclusiveStartKey != nil {
		after := ft.storageKey(params.ExclusiveStartKey)
		start = sort.SearchStrings(ft.order, after)
		if start < len(ft.order) && ft.order[start] == after {
			start++
		}
	}
	end := len(ft.order)
	if params.Limit != nil && start+int(*params.Limit) < end {
		end = start + int(*params.Limit)
	}

	out := &dynamodb.ScanOutput{}
	for _, key := range ft.order[start:end] {
		item := ft.items[key]
		if evalFilter(params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item) {
			out.Items = append(out.Items, item)
		}
	}
	if end < len(ft.order) {
		out.LastEvaluatedKey = ft.primaryKeyOf(ft.items[ft.order[end-1]])
	}
	out.Count = int32(len(out.Items))
	return out, nil
}
