package mapping

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionMapperLiteralNames(t *testing.T) {
	tm := ordersMapping(t)
	ctx := tenantCtx("t1")

	t.Run("literal key reference gets a fresh alias and encoded value", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("id = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: "o-1"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in)))

		assert.Equal(t, "#mt0 = :v", aws.ToString(in.ConditionExpression))
		assert.Equal(t, "hk", in.ExpressionAttributeNames["#mt0"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "t1.Orders.o-1"}, in.ExpressionAttributeValues[":v"])
	})

	t.Run("range key is renamed but not encoded", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("created = :c"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: "2026-01-01"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in)))

		assert.Equal(t, "#mt0 = :c", aws.ToString(in.ConditionExpression))
		assert.Equal(t, "rk", in.ExpressionAttributeNames["#mt0"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-01-01"}, in.ExpressionAttributeValues[":c"])
	})

	t.Run("name that is a substring of another is left alone", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("grid = :v and id = :w"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: "g"},
				":w": &types.AttributeValueMemberS{Value: "o-1"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in)))

		assert.Equal(t, "grid = :v and #mt0 = :w", aws.ToString(in.ConditionExpression))
		assert.Equal(t, &types.AttributeValueMemberS{Value: "g"}, in.ExpressionAttributeValues[":v"])
	})

	t.Run("undefined placeholder rejected", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("id = :missing"),
		}
		err := tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in))
		assert.True(t, mterror.IsKind(err, mterror.KindInvalidArgument))
	})
}

func TestConditionMapperAliases(t *testing.T) {
	tm := ordersMapping(t)
	ctx := tenantCtx("t1")

	t.Run("caller alias is repointed at the physical column", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("#k = :v"),
			ExpressionAttributeNames: map[string]string{
				"#k": "id",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: "o-1"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in)))

		assert.Equal(t, "#k = :v", aws.ToString(in.ConditionExpression))
		assert.Equal(t, "hk", in.ExpressionAttributeNames["#k"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "t1.Orders.o-1"}, in.ExpressionAttributeValues[":v"])
	})

	t.Run("placeholder shared across expressions is encoded once", func(t *testing.T) {
		in := &dynamodb.UpdateItemInput{
			UpdateExpression:    aws.String("SET note = :n"),
			ConditionExpression: aws.String("id = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":n": &types.AttributeValueMemberS{Value: "hello"},
				":v": &types.AttributeValueMemberS{Value: "o-1"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewUpdateItemRequestWrapper(in)))

		assert.Equal(t, "SET note = :n", aws.ToString(in.UpdateExpression))
		assert.Equal(t, "#mt0 = :v", aws.ToString(in.ConditionExpression))
		assert.Equal(t, &types.AttributeValueMemberS{Value: "t1.Orders.o-1"}, in.ExpressionAttributeValues[":v"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "hello"}, in.ExpressionAttributeValues[":n"])
	})
}

func TestConditionMapperIndexKeys(t *testing.T) {
	tm := ordersMapping(t)
	ctx := tenantCtx("t1")

	t.Run("update of an index hash key is renamed and encoded", func(t *testing.T) {
		in := &dynamodb.UpdateItemInput{
			UpdateExpression:         aws.String("SET #s = :s"),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":s": &types.AttributeValueMemberS{Value: "closed"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewUpdateItemRequestWrapper(in)))

		assert.Equal(t, "SET #s = :s", aws.ToString(in.UpdateExpression))
		assert.Equal(t, "gsi1_hk", in.ExpressionAttributeNames["#s"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "t1.Orders.closed"}, in.ExpressionAttributeValues[":s"])
	})

	t.Run("literal index key reference in a condition", func(t *testing.T) {
		in := &dynamodb.PutItemInput{
			ConditionExpression: aws.String("status = :s"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":s": &types.AttributeValueMemberS{Value: "open"},
			},
		}
		require.NoError(t, tm.ConditionMapper().Apply(ctx, NewPutItemRequestWrapper(in)))

		assert.Equal(t, "#mt0 = :s", aws.ToString(in.ConditionExpression))
		assert.Equal(t, "gsi1_hk", in.ExpressionAttributeNames["#mt0"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "t1.Orders.open"}, in.ExpressionAttributeValues[":s"])
	})
}

func TestConditionMapperLegacyConditions(t *testing.T) {
	tm := ordersMapping(t)
	ctx := tenantCtx("t1")

	t.Run("legacy EQ on hash key is renamed and encoded", func(t *testing.T) {
		in := &dynamodb.ScanInput{
			ScanFilter: map[string]types.Condition{
				"id": {
					ComparisonOperator: types.ComparisonOperatorEq,
					AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: "o-1"}},
				},
				"note": {
					ComparisonOperator: types.ComparisonOperatorEq,
					AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: "x"}},
				},
			},
		}
		require.NoError(t, tm.ConditionMapper().applyForKeys(ctx, &scanRequestWrapper{in: in}, tm.tableKeys))

		require.Contains(t, in.ScanFilter, "hk")
		assert.Equal(t, []types.AttributeValue{&types.AttributeValueMemberS{Value: "t1.Orders.o-1"}}, in.ScanFilter["hk"].AttributeValueList)
		assert.Contains(t, in.ScanFilter, "note")
		assert.NotContains(t, in.ScanFilter, "id")
	})

	t.Run("key in both legacy and expression form rejected", func(t *testing.T) {
		in := &dynamodb.QueryInput{
			KeyConditionExpression: aws.String("id = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: "o-1"},
			},
			KeyConditions: map[string]types.Condition{
				"id": {
					ComparisonOperator: types.ComparisonOperatorEq,
					AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: "o-1"}},
				},
			},
		}
		err := tm.ConditionMapper().applyForKeys(ctx, &queryRequestWrapper{in: in}, tm.tableKeys)
		assert.True(t, mterror.IsKind(err, mterror.KindInvalidArgument))
	})
}
