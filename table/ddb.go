package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FromCreateTableInput builds a TableDefinition from a CreateTable request.
// Both global and local secondary indexes land in SecondaryIndexes, in the
// order they appear on the request.
func FromCreateTableInput(in *dynamodb.CreateTableInput) (TableDefinition, error) {
	if in == nil || in.TableName == nil {
		return TableDefinition{}, fmt.Errorf("table name is required")
	}
	kinds := make(map[string]KeyKind, len(in.AttributeDefinitions))
	for _, ad := range in.AttributeDefinitions {
		kinds[aws.ToString(ad.AttributeName)] = KeyKind(ad.AttributeType)
	}
	keys, err := keysFromSchema(in.KeySchema, kinds)
	if err != nil {
		return TableDefinition{}, fmt.Errorf("table %s: %w", aws.ToString(in.TableName), err)
	}
	def := TableDefinition{
		Name:           aws.ToString(in.TableName),
		KeyDefinitions: keys,
	}
	for _, gsi := range in.GlobalSecondaryIndexes {
		si, err := secondaryIndexFromSchema(aws.ToString(gsi.IndexName), gsi.KeySchema, gsi.Projection, kinds)
		if err != nil {
			return TableDefinition{}, err
		}
		def.SecondaryIndexes = append(def.SecondaryIndexes, si)
	}
	for _, lsi := range in.LocalSecondaryIndexes {
		si, err := secondaryIndexFromSchema(aws.ToString(lsi.IndexName), lsi.KeySchema, lsi.Projection, kinds)
		if err != nil {
			return TableDefinition{}, err
		}
		def.SecondaryIndexes = append(def.SecondaryIndexes, si)
	}
	if in.StreamSpecification != nil && aws.ToBool(in.StreamSpecification.StreamEnabled) {
		def.StreamsEnabled = true
	}
	return def, nil
}

func secondaryIndexFromSchema(name string, schema []types.KeySchemaElement, proj *types.Projection, kinds map[string]KeyKind) (SecondaryIndexDefinition, error) {
	keys, err := keysFromSchema(schema, kinds)
	if err != nil {
		return SecondaryIndexDefinition{}, fmt.Errorf("index %s: %w", name, err)
	}
	si := SecondaryIndexDefinition{
		Name:           name,
		KeyDefinitions: keys,
		Projection:     ProjectionAll,
	}
	if proj != nil && proj.ProjectionType != "" {
		si.Projection = ProjectionKind(proj.ProjectionType)
	}
	return si, nil
}

func keysFromSchema(schema []types.KeySchemaElement, kinds map[string]KeyKind) (PrimaryKeyDefinition, error) {
	var keys PrimaryKeyDefinition
	for _, elem := range schema {
		name := aws.ToString(elem.AttributeName)
		kind, ok := kinds[name]
		if !ok {
			return PrimaryKeyDefinition{}, fmt.Errorf("key attribute %q has no attribute definition", name)
		}
		switch elem.KeyType {
		case types.KeyTypeHash:
			keys.PartitionKey = KeyDef{Name: name, Kind: kind}
		case types.KeyTypeRange:
			keys.SortKey = KeyDef{Name: name, Kind: kind}
		default:
			return PrimaryKeyDefinition{}, fmt.Errorf("unexpected key type %q for %q", elem.KeyType, name)
		}
	}
	if keys.PartitionKey.Name == "" {
		return PrimaryKeyDefinition{}, fmt.Errorf("key schema has no hash key")
	}
	return keys, nil
}

// Description renders the definition as a DynamoDB table description.
func (t TableDefinition) Description() types.TableDescription {
	desc := types.TableDescription{
		TableName:            aws.String(t.Name),
		KeySchema:            t.KeyDefinitions.keySchema(),
		AttributeDefinitions: t.attributeDefinitions(),
	}
	for _, si := range t.SecondaryIndexes {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName: aws.String(si.Name),
			KeySchema: si.KeyDefinitions.keySchema(),
			Projection: &types.Projection{
				ProjectionType: types.ProjectionType(si.Projection),
			},
		})
	}
	if t.StreamsEnabled {
		desc.StreamSpecification = &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		}
		if t.StreamArn != "" {
			desc.LatestStreamArn = aws.String(t.StreamArn)
		}
	}
	return desc
}

func (k PrimaryKeyDefinition) keySchema() []types.KeySchemaElement {
	schema := []types.KeySchemaElement{{
		AttributeName: aws.String(k.PartitionKey.Name),
		KeyType:       types.KeyTypeHash,
	}}
	if k.SortKey.Name != "" {
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(k.SortKey.Name),
			KeyType:       types.KeyTypeRange,
		})
	}
	return schema
}

func (t TableDefinition) attributeDefinitions() []types.AttributeDefinition {
	seen := make(map[string]bool)
	var defs []types.AttributeDefinition
	add := func(kd KeyDef) {
		if kd.Name == "" || seen[kd.Name] {
			return
		}
		seen[kd.Name] = true
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(kd.Name),
			AttributeType: types.ScalarAttributeType(kd.Kind),
		})
	}
	add(t.KeyDefinitions.PartitionKey)
	add(t.KeyDefinitions.SortKey)
	for _, si := range t.SecondaryIndexes {
		add(si.KeyDefinitions.PartitionKey)
		add(si.KeyDefinitions.SortKey)
	}
	return defs
}
