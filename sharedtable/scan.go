package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
	"golang.org/x/exp/maps"
)

// Scan scans the physical table with a tenant filter and keeps paging while
// pages come back empty, since a physical page may hold only other tenants'
// rows. Paging stops on the first non-empty page, on exhaustion, or when the
// time limit passes; in the last case the physical page cursor is returned
// verbatim so the next call resumes where this one stopped.
func (c *Client) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if params == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "scan input is required")
	}
	if params.ConsistentRead != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "consistent read is not supported on shared tables")
	}
	if params.TotalSegments != nil || params.Segment != nil {
		return nil, mterror.Newf(mterror.KindUnsupported, "parallel scans are not supported on shared tables")
	}

	tm, err := c.tableMapping(ctx, params.TableName)
	if err != nil {
		return nil, err
	}

	keyNames, err := cursorKeyAttributes(tm.VirtualTable(), aws.ToString(params.IndexName))
	if err != nil {
		return nil, err
	}

	req := *params
	req.TableName = aws.String(tm.PhysicalTable().Name)
	// The scan mapper injects the tenant fence into these maps; the caller's
	// maps must survive for retries.
	req.ExpressionAttributeNames = maps.Clone(params.ExpressionAttributeNames)
	req.ExpressionAttributeValues = maps.Clone(params.ExpressionAttributeValues)
	if err := tm.QueryAndScanMapper().ApplyToScan(ctx, &req); err != nil {
		return nil, err
	}

	deadline := c.opts.Clock.Now().Add(c.opts.GetRecordsTimeLimit)
	for {
		out, serr := c.ddb.Scan(ctx, &req, optFns...)
		if serr != nil {
			return nil, mterror.Wrap(mterror.KindBackend, serr, "scan")
		}

		if len(out.Items) > 0 {
			items := make([]map[string]types.AttributeValue, 0, len(out.Items))
			for _, item := range out.Items {
				restored, rerr := tm.ItemMapper().Reverse(ctx, item)
				if rerr != nil {
					return nil, rerr
				}
				items = append(items, restored)
			}
			out.Items = items
			if out.LastEvaluatedKey != nil {
				// Recompute the cursor from the last item returned, so it is
				// a virtual key regardless of what the physical page cursor
				// points at.
				out.LastEvaluatedKey = restrictToKeys(items[len(items)-1], keyNames)
			}
			return out, nil
		}

		if out.LastEvaluatedKey == nil {
			return out, nil
		}
		if c.opts.Clock.Now().After(deadline) {
			c.opts.Logger.Debugf("%s: scan of %q hit the time limit, returning physical cursor", c.opts.Name, tm.VirtualTable().Name)
			return out, nil
		}
		req.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// cursorKeyAttributes lists the virtual attributes a scan cursor must carry:
// the table's primary key, plus the scanned index's keys.
func cursorKeyAttributes(vt table.TableDefinition, indexName string) ([]string, error) {
	names := vt.KeyDefinitions.KeyAttributeNames()
	if indexName == "" {
		return names, nil
	}
	si, ok := vt.SecondaryIndex(indexName)
	if !ok {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "table %q has no index %q", vt.Name, indexName)
	}
	names = append(names, si.KeyDefinitions.PartitionKey.Name)
	if si.KeyDefinitions.SortKey.Name != "" {
		names = append(names, si.KeyDefinitions.SortKey.Name)
	}
	return names, nil
}

func restrictToKeys(item map[string]types.AttributeValue, keyNames []string) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(keyNames))
	for _, name := range keyNames {
		if av, ok := item[name]; ok {
			out[name] = av
		}
	}
	return out
}
