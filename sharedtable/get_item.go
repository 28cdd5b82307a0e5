package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharedtable/mtdynamo/mterror"
)

// GetItem maps the key to the physical table, fetches, and maps the item
// back. Options that would require rewriting a projection against physical
// column names are not supported.
func (c *Client) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if params == nil || params.Key == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "key is required")
	}
	if params.ConsistentRead != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "consistent read is not supported on shared tables")
	}
	if len(params.AttributesToGet) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "attributesToGet is not supported on shared tables")
	}
	if params.ProjectionExpression != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "projection expressions are not supported on GetItem")
	}
	if len(params.ExpressionAttributeNames) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "expression attribute names are not supported on GetItem")
	}

	tm, err := c.tableMapping(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	req := *params
	req.TableName = aws.String(tm.PhysicalTable().Name)
	req.Key, err = tm.KeyMapper().Apply(ctx, params.Key)
	if err != nil {
		return nil, err
	}

	out, err := c.ddb.GetItem(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "get item")
	}
	item, err := tm.ItemMapper().Reverse(ctx, out.Item)
	if err != nil {
		return nil, err
	}
	out.Item = item
	return out, nil
}
