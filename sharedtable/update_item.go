package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
)

// UpdateItem maps the key, the update expression and any condition
// expression to physical form. Legacy AttributeUpdates cannot be mapped
// safely and are rejected.
func (c *Client) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if params == nil || params.Key == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "key is required")
	}
	if len(params.AttributeUpdates) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "legacy AttributeUpdates are not supported on UpdateItem")
	}
	if len(params.Expected) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "legacy Expected conditions are not supported on UpdateItem")
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
	if err := tm.ConditionMapper().Apply(ctx, mapping.NewUpdateItemRequestWrapper(&req)); err != nil {
		return nil, err
	}

	out, err := c.ddb.UpdateItem(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "update item")
	}
	attrs, err := tm.ItemMapper().Reverse(ctx, out.Attributes)
	if err != nil {
		return nil, err
	}
	out.Attributes = attrs
	return out, nil
}
