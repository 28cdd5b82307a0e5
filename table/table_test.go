package table

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCreateTableInput(t *testing.T) {
	in := &dynamodb.CreateTableInput{
		TableName: aws.String("Orders"),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("created"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("status"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("created"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String("by-status"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("status"), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
		}},
		StreamSpecification: &types.StreamSpecification{StreamEnabled: aws.Bool(true)},
	}

	def, err := FromCreateTableInput(in)
	require.NoError(t, err)
	assert.Equal(t, "Orders", def.Name)
	assert.Equal(t, KeyDef{Name: "id", Kind: KeyKindS}, def.KeyDefinitions.PartitionKey)
	assert.Equal(t, KeyDef{Name: "created", Kind: KeyKindS}, def.KeyDefinitions.SortKey)
	require.Len(t, def.SecondaryIndexes, 1)
	assert.Equal(t, "by-status", def.SecondaryIndexes[0].Name)
	assert.Equal(t, ProjectionKeysOnly, def.SecondaryIndexes[0].Projection)
	assert.True(t, def.StreamsEnabled)
}

func TestFromCreateTableInputErrors(t *testing.T) {
	t.Run("nil input", func(t *testing.T) {
		_, err := FromCreateTableInput(nil)
		assert.Error(t, err)
	})

	t.Run("key attribute without definition", func(t *testing.T) {
		_, err := FromCreateTableInput(&dynamodb.CreateTableInput{
			TableName: aws.String("Orders"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			},
		})
		assert.Error(t, err)
	})
}

func TestDescriptionRoundTrip(t *testing.T) {
	def := TableDefinition{
		Name: "Orders",
		KeyDefinitions: PrimaryKeyDefinition{
			PartitionKey: KeyDef{Name: "id", Kind: KeyKindS},
			SortKey:      KeyDef{Name: "created", Kind: KeyKindS},
		},
		SecondaryIndexes: []SecondaryIndexDefinition{{
			Name: "by-status",
			KeyDefinitions: PrimaryKeyDefinition{
				PartitionKey: KeyDef{Name: "status", Kind: KeyKindS},
			},
			Projection: ProjectionAll,
		}},
		StreamsEnabled: true,
		StreamArn:      "arn::t1::Orders",
	}

	desc := def.Description()
	assert.Equal(t, "Orders", aws.ToString(desc.TableName))
	assert.Len(t, desc.KeySchema, 2)
	assert.Len(t, desc.AttributeDefinitions, 3)
	require.Len(t, desc.GlobalSecondaryIndexes, 1)
	assert.Equal(t, "by-status", aws.ToString(desc.GlobalSecondaryIndexes[0].IndexName))
	require.NotNil(t, desc.StreamSpecification)
	assert.Equal(t, "arn::t1::Orders", aws.ToString(desc.LatestStreamArn))
}

func TestExtractKey(t *testing.T) {
	keys := PrimaryKeyDefinition{
		PartitionKey: KeyDef{Name: "id", Kind: KeyKindS},
		SortKey:      KeyDef{Name: "n", Kind: KeyKindN},
	}

	t.Run("restricts to key attributes", func(t *testing.T) {
		key, err := keys.ExtractKey(map[string]types.AttributeValue{
			"id":    &types.AttributeValueMemberS{Value: "a"},
			"n":     &types.AttributeValueMemberN{Value: "1"},
			"extra": &types.AttributeValueMemberS{Value: "x"},
		})
		require.NoError(t, err)
		assert.Len(t, key, 2)
	})

	t.Run("missing attribute", func(t *testing.T) {
		_, err := keys.ExtractKey(map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "a"},
		})
		assert.Error(t, err)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := keys.ExtractKey(map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "a"},
			"n":  &types.AttributeValueMemberS{Value: "not-a-number"},
		})
		assert.Error(t, err)
	})
}
