package sharedtable

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
)

// DescribeTable returns the virtual table's definition from the metadata
// repo. Virtual tables have no provisioning lifecycle, so the status is
// always ACTIVE.
func (c *Client) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if params == nil {
		return nil, mterror.Newf(mterror.KindInvalidArgument, "describe table input is required")
	}
	name, err := requiredTableName(params.TableName)
	if err != nil {
		return nil, err
	}
	def, err := c.repo.GetTableDescription(ctx, name)
	if err != nil {
		return nil, err
	}
	desc := def.Description()
	desc.TableStatus = types.TableStatusActive
	return &dynamodb.DescribeTableOutput{Table: &desc}, nil
}
