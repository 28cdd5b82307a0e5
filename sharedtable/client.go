package sharedtable

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharedtable/mtdynamo/logger"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/repo"
	"github.com/sharedtable/mtdynamo/table"
)

// DynamoDBAPI is the slice of the DynamoDB client the shared-table layer
// calls. *dynamodb.Client satisfies it.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Options configures a shared-table Client.
type Options struct {
	// Name identifies this layer instance in logs.
	Name string
	// DeleteTableAsync queues table data cleanup to a background worker
	// instead of blocking the DeleteTable call.
	DeleteTableAsync bool
	// TruncateOnDeleteTable deletes the tenant's rows from the physical
	// table when a virtual table is deleted. Off by default: rows are left
	// behind and become unreachable once the metadata is gone.
	TruncateOnDeleteTable bool
	// GetRecordsTimeLimit bounds how long a single Scan call keeps paging
	// through physical pages before returning a resumption cursor.
	GetRecordsTimeLimit time.Duration
	// Clock defaults to the system clock.
	Clock Clock
	// Logger defaults to a no-op logger.
	Logger logger.Logger
	// CacheTTL bounds how long a table mapping stays cached. Defaults to
	// 10 minutes.
	CacheTTL time.Duration
	// CacheMaxEntries bounds the mapping cache size. Defaults to 4096.
	CacheMaxEntries int64
}

const (
	defaultGetRecordsTimeLimit = 10 * time.Second
	defaultCacheTTL            = 10 * time.Minute
	defaultCacheMaxEntries     = 4096
)

// Client multiplexes tenants' virtual tables onto a fixed set of physical
// DynamoDB tables. All methods require a tenant in the context.
type Client struct {
	ddb     DynamoDBAPI
	repo    repo.TableDescriptionRepo
	factory *mapping.TableMappingFactory
	cache   *mappingCache
	opts    Options

	deletes   chan deleteJob
	workerWG  sync.WaitGroup
	closeOnce sync.Once
	// closeMu orders queue sends against Close: a send holds the read lock,
	// so the channel cannot close mid-send.
	closeMu sync.RWMutex
	closed  bool
}

type deleteJob struct {
	ctx       context.Context
	tableName string
}

// New builds a Client over the given DynamoDB client, metadata repo and
// physical table set.
func New(ddb DynamoDBAPI, descriptionRepo repo.TableDescriptionRepo, physicalTables []table.TableDefinition, opts Options) (*Client, error) {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop
	}
	if opts.GetRecordsTimeLimit <= 0 {
		opts.GetRecordsTimeLimit = defaultGetRecordsTimeLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.CacheMaxEntries <= 0 {
		opts.CacheMaxEntries = defaultCacheMaxEntries
	}

	ctf, err := mapping.NewSignatureTableFactory(physicalTables...)
	if err != nil {
		return nil, err
	}
	c := &Client{
		ddb:     ddb,
		repo:    descriptionRepo,
		factory: mapping.NewTableMappingFactory(ctf),
		opts:    opts,
		deletes: make(chan deleteJob, 64),
	}
	c.cache, err = newMappingCache(opts.CacheMaxEntries, opts.CacheTTL, c.buildMapping)
	if err != nil {
		return nil, err
	}

	c.workerWG.Add(1)
	go c.deleteWorker()
	return c, nil
}

// Close stops the background delete worker after draining queued jobs and
// releases the mapping cache.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeMu.Lock()
		c.closed = true
		c.closeMu.Unlock()
		close(c.deletes)
		c.workerWG.Wait()
		c.cache.close()
	})
	return nil
}

// IsSharedTable reports whether the given physical table name belongs to
// this client's shared table set.
func (c *Client) IsSharedTable(physicalTableName string) bool {
	for _, pt := range c.factory.CreateTableRequestFactory().PhysicalTables() {
		if pt.Name == physicalTableName {
			return true
		}
	}
	return false
}

func (c *Client) buildMapping(ctx context.Context, tableName string) (*mapping.TableMapping, error) {
	def, err := c.repo.GetTableDescription(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return c.factory.TableMapping(def)
}

func (c *Client) tableMapping(ctx context.Context, tableName *string) (*mapping.TableMapping, error) {
	name, err := requiredTableName(tableName)
	if err != nil {
		return nil, err
	}
	return c.cache.get(ctx, name)
}

func requiredTableName(tableName *string) (string, error) {
	if tableName == nil || strings.TrimSpace(*tableName) == "" {
		return "", mterror.Newf(mterror.KindInvalidArgument, "table name is required")
	}
	return *tableName, nil
}
