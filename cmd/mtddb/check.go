package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sharedtable/mtdynamo/table"
)

// runCheck verifies that every configured physical table exists in the live
// account and that its key schema matches the config.
func runCheck() error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	region := fs.String("region", "", "AWS region (defaults to config file, then environment)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if *region == "" {
		*region = cfg.Region
	}

	ctx := context.Background()
	ddb, err := newDynamoDBClient(ctx, *region, cfg.AssumeRoleArn)
	if err != nil {
		return err
	}

	failures := 0
	for _, pt := range cfg.PhysicalTables {
		out, err := ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(pt.Name)})
		if err != nil {
			fmt.Printf("%-30s MISSING: %v\n", pt.Name, err)
			failures++
			continue
		}
		if err := checkKeySchema(pt, out.Table); err != nil {
			fmt.Printf("%-30s MISMATCH: %v\n", pt.Name, err)
			failures++
			continue
		}
		fmt.Printf("%-30s OK\n", pt.Name)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d physical tables failed the check", failures, len(cfg.PhysicalTables))
	}
	return nil
}

func newDynamoDBClient(ctx context.Context, region, assumeRoleArn string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if assumeRoleArn != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), assumeRoleArn)
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func checkKeySchema(want table.TableDefinition, got *types.TableDescription) error {
	kinds := make(map[string]table.KeyKind, len(got.AttributeDefinitions))
	for _, ad := range got.AttributeDefinitions {
		kinds[aws.ToString(ad.AttributeName)] = table.KeyKind(ad.AttributeType)
	}
	var gotKeys table.PrimaryKeyDefinition
	for _, elem := range got.KeySchema {
		name := aws.ToString(elem.AttributeName)
		kd := table.KeyDef{Name: name, Kind: kinds[name]}
		switch elem.KeyType {
		case types.KeyTypeHash:
			gotKeys.PartitionKey = kd
		case types.KeyTypeRange:
			gotKeys.SortKey = kd
		}
	}
	if gotKeys.PartitionKey != want.KeyDefinitions.PartitionKey {
		return fmt.Errorf("hash key is %+v, config says %+v", gotKeys.PartitionKey, want.KeyDefinitions.PartitionKey)
	}
	if gotKeys.SortKey != want.KeyDefinitions.SortKey {
		return fmt.Errorf("range key is %+v, config says %+v", gotKeys.SortKey, want.KeyDefinitions.SortKey)
	}
	return nil
}
