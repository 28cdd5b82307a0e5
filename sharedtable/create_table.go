package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/streamarn"
	"github.com/sharedtable/mtdynamo/table"
	"github.com/sharedtable/mtdynamo/tenant"
)

// CreateTable records the virtual table's definition in the metadata repo.
// No physical table is created; the definition must be compatible with one
// of the configured physical tables or the call fails with NoPhysicalTable.
// The table is immediately ACTIVE.
func (c *Client) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return nil, err
	}
	def, err := table.FromCreateTableInput(params)
	if err != nil {
		return nil, mterror.Wrap(mterror.KindInvalidArgument, err, "parse create table request")
	}

	// Resolve the mapping up front so an incompatible schema fails the
	// create instead of the first read or write.
	tm, err := c.factory.TableMapping(def)
	if err != nil {
		return nil, err
	}

	if def.StreamsEnabled {
		physicalArn := tm.PhysicalTable().StreamArn
		if physicalArn == "" {
			return nil, mterror.Newf(mterror.KindUnsupported,
				"physical table %q has no stream, cannot enable streams on %q", tm.PhysicalTable().Name, def.Name)
		}
		def.StreamArn = streamarn.Format(physicalArn, tn, def.Name)
	}

	created, err := c.repo.CreateTable(ctx, def)
	if err != nil {
		return nil, err
	}
	c.opts.Logger.Infof("%s: created table %q for tenant %q on physical table %q", c.opts.Name, def.Name, tn, tm.PhysicalTable().Name)

	desc := created.Description()
	desc.TableStatus = types.TableStatusActive
	return &dynamodb.CreateTableOutput{TableDescription: &desc}, nil
}
