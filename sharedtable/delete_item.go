package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
)

// DeleteItem maps the key and any condition expression to physical form and
// deletes from the physical table.
func (c *Client) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if params == nil || params.Key == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "key is required")
	}
	if len(params.Expected) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "legacy Expected conditions are not supported on DeleteItem")
	}

	tm, err := c.tableMapping(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	req := *params
	req.TableName = aws.String(tm.PhysicalTable().Name)
	req.ExpressionAttributeNames = maps.Clone(params.ExpressionAttributeNames)
	req.ExpressionAttributeValues = maps.Clone(params.ExpressionAttributeValues)
	req.Key, err = tm.KeyMapper().Apply(ctx, params.Key)
	if err != nil {
		return nil, err
	}
	if err := tm.ConditionMapper().Apply(ctx, mapping.NewDeleteItemRequestWrapper(&req)); err != nil {
		return nil, err
	}

	out, err := c.ddb.DeleteItem(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "delete item")
	}
	attrs, err := tm.ItemMapper().Reverse(ctx, out.Attributes)
	if err != nil {
		return nil, err
	}
	out.Attributes = attrs
	return out, nil
}
