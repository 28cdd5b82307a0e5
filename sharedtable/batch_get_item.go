package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BatchGetItem maps each table's keys to its physical table, fetches, and
// maps responses and unprocessed keys back. Each virtual table in the batch
// must map to a distinct physical table so responses can be attributed.
func (c *Client) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if params == nil || len(params.RequestItems) == 0 {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "request items are required")
	}

	byPhysical := make(map[string]*mapping.TableMapping, len(params.RequestItems))
	physicalItems := make(map[string]types.KeysAndAttributes, len(params.RequestItems))

	virtualNames := maps.Keys(params.RequestItems)
	slices.Sort(virtualNames)
	for _, virtualName := range virtualNames {
		ka := params.RequestItems[virtualName]
		if ka.ConsistentRead != nil {
			return nil, mterror.Newf(mterror.KindUnsupported, "consistent read is not supported on shared tables")
		}
		if len(ka.AttributesToGet) > 0 || ka.ProjectionExpression != nil || len(ka.ExpressionAttributeNames) > 0 {
			return nil, mterror.Newf(mterror.KindUnsupported, "projections are not supported on BatchGetItem")
		}

		name := virtualName
		tm, err := c.tableMapping(ctx, &name)
		if err != nil {
			return nil, err
		}
		physicalName := tm.PhysicalTable().Name
		if _, dup := byPhysical[physicalName]; dup {
			return nil, mterror.Newf(mterror.KindUnsupported,
				"tables %q and %q share physical table %q in one batch", byPhysical[physicalName].VirtualTable().Name, virtualName, physicalName)
		}
		byPhysical[physicalName] = tm

		keys := make([]map[string]types.AttributeValue, 0, len(ka.Keys))
		for _, key := range ka.Keys {
			mapped, err := tm.KeyMapper().Apply(ctx, key)
			if err != nil {
				return nil, err
			}
			keys = append(keys, mapped)
		}
		ka.Keys = keys
		physicalItems[physicalName] = ka
	}

	req := *params
	req.RequestItems = physicalItems
	out, err := c.ddb.BatchGetItem(ctx, &req, optFns...)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindBackend, err, "batch get item")
	}

	responses := make(map[string][]map[string]types.AttributeValue, len(out.Responses))
	for physicalName, items := range out.Responses {
		tm, ok := byPhysical[physicalName]
		if !ok {
			return nil, mterror.Newf(mterror.KindCorrupt, "response for unrequested table %q", physicalName)
		}
		virtualItems := make([]map[string]types.AttributeValue, 0, len(items))
		for _, item := range items {
			restored, rerr := tm.ItemMapper().Reverse(ctx, item)
			if rerr != nil {
				return nil, rerr
			}
			virtualItems = append(virtualItems, restored)
		}
		responses[tm.VirtualTable().Name] = virtualItems
	}
	out.Responses = responses

	if len(out.UnprocessedKeys) > 0 {
		unprocessed := make(map[string]types.KeysAndAttributes, len(out.UnprocessedKeys))
		for physicalName, ka := range out.UnprocessedKeys {
			tm, ok := byPhysical[physicalName]
			if !ok {
				return nil, mterror.Newf(mterror.KindCorrupt, "unprocessed keys for unrequested table %q", physicalName)
			}
			keys := make([]map[string]types.AttributeValue, 0, len(ka.Keys))
			for _, key := range ka.Keys {
				restored, rerr := tm.KeyMapper().Reverse(ctx, key)
				if rerr != nil {
					return nil, rerr
				}
				keys = append(keys, restored)
			}
			ka.Keys = keys
			unprocessed[tm.VirtualTable().Name] = ka
		}
		out.UnprocessedKeys = unprocessed
	}
	return out, nil
}
