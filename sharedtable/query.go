package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
)

// Query rewrites the key condition against the physical schema and maps the
// results back. The partition-key equality in the condition pins the query
// to the tenant's key range, so no extra filter is needed.
func (c *Client) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if params == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "query input is required")
	}
	if params.ConsistentRead != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "consistent read is not supported on shared tables")
	}
	if len(params.AttributesToGet) > 0 || params.ProjectionExpression != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "projections are not supported on Query")
	}

	tm, err := c.tableMapping(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	req := *params
	req.TableName = aws.String(tm.PhysicalTable().Name)
	req.ExpressionAttributeNames = maps.Clone(params.ExpressionAttributeNames)
	req.ExpressionAttributeValues = maps.Clone(params.ExpressionAttributeValues)
	if err := tm.QueryAndScanMapper().ApplyToQuery(ctx, &req); err != nil {
		return nil, err
	}

	out, err := c.ddb.Query(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "query")
	}

	items := make([]map[string]types.AttributeValue, 0, len(out.Items))
	for _, item := range out.Items {
		restored, rerr := tm.ItemMapper().Reverse(ctx, item)
		if rerr != nil {
			return nil, rerr
		}
		items = append(items, restored)
	}
	out.Items = items

	lek, err := tm.ItemMapper().Reverse(ctx, out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	out.LastEvaluatedKey = lek
	return out, nil
}
