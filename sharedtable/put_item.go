package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
)

// PutItem maps the item and any condition expression to physical form and
// writes to the physical table.
func (c *Client) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if params == nil || params.Item == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "item is required")
	}
	if len(params.Expected) > 0 {
		return nil, mterror.Newf(mterror.KindUnsupported, "legacy Expected conditions are not supported on PutItem")
	}

	tm, err := c.tableMapping(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	req := *params
	req.TableName = aws.String(tm.PhysicalTable().Name)
	// The mappers rewrite the expression maps in place; the caller's maps
	// must survive for retries.
	req.ExpressionAttributeNames = maps.Clone(params.ExpressionAttributeNames)
	req.ExpressionAttributeValues = maps.Clone(params.ExpressionAttributeValues)
	req.Item, err = tm.ItemMapper().Apply(ctx, params.Item)
	if err != nil {
		return nil, err
	}
	if err := tm.ConditionMapper().Apply(ctx, mapping.NewPutItemRequestWrapper(&req)); err != nil {
		return nil, err
	}

	out, err := c.ddb.PutItem(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "put item")
	}
	attrs, err := tm.ItemMapper().Reverse(ctx, out.Attributes)
	if err != nil {
		return nil, err
	}
	out.Attributes = attrs
	return out, nil
}
