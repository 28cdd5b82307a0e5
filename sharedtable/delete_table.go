package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/tenant"
)

// DeleteTable removes the virtual table's metadata and, when configured,
// deletes the tenant's rows from the physical table first. With
// DeleteTableAsync the cleanup is queued to the background worker and the
// call returns immediately; the physical table is never dropped.
func (c *Client) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	if params == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "delete table input is required")
	}
	name, err := requiredTableName(params.TableName)
	if err != nil {
		return nil, err
	}
	def, err := c.repo.GetTableDescription(ctx, name)
	if err != nil {
		return nil, err
	}

	if c.opts.DeleteTableAsync {
		c.closeMu.RLock()
		if c.closed {
			c.closeMu.RUnlock()
			return nil, mterror.Newf(mterror.KindInvalidArgument, "client is closed")
		}
		// The caller's context may be canceled as soon as this returns;
		// the queued job keeps the tenant but not the cancellation.
		c.deletes <- deleteJob{ctx: context.WithoutCancel(ctx), tableName: name}
		c.closeMu.RUnlock()
	} else if err := c.deleteTableData(ctx, name); err != nil {
		return nil, err
	}

	desc := def.Description()
	desc.TableStatus = types.TableStatusDeleting
	return &dynamodb.DeleteTableOutput{TableDescription: &desc}, nil
}

func (c *Client) deleteWorker() {
	defer c.workerWG.Done()
	for job := range c.deletes {
		if err := c.deleteTableData(job.ctx, job.tableName); err != nil {
			c.opts.Logger.Errorf("%s: background delete of table %q failed: %v", c.opts.Name, job.tableName, err)
		}
	}
}

func (c *Client) deleteTableData(ctx context.Context, tableName string) error {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return err
	}
	if c.opts.TruncateOnDeleteTable {
		if err := c.truncate(ctx, tableName); err != nil {
			return err
		}
	} else {
		c.opts.Logger.Infof("%s: deleting table %q for tenant %q without truncating, rows remain in the physical table", c.opts.Name, tableName, tn)
	}
	if err := c.repo.DeleteTable(ctx, tableName); err != nil {
		return err
	}
	c.cache.invalidate(tn, tableName)
	return nil
}

// truncate deletes the tenant's rows through the same mapped Scan and
// DeleteItem paths callers use, one page at a time. Expensive on large
// tables.
func (c *Client) truncate(ctx context.Context, tableName string) error {
	def, err := c.repo.GetTableDescription(ctx, tableName)
	if err != nil {
		return err
	}
	deleted := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := c.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return err
		}
		for _, item := range out.Items {
			key, kerr := def.KeyDefinitions.ExtractKey(item)
			if kerr != nil {
				return mterror.Wrap(mterror.KindCorrupt, kerr, "extract key during truncate")
			}
			if _, derr := c.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(tableName),
				Key:       key,
			}); derr != nil {
				return derr
			}
			deleted++
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	c.opts.Logger.Infof("%s: truncated table %q, deleted %d items", c.opts.Name, tableName, deleted)
	return nil
}
