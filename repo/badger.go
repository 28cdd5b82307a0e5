package repo

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
	"github.com/sharedtable/mtdynamo/tenant"
	"gopkg.in/yaml.v3"
)

const badgerKeyPrefix = "mtd:"

// BadgerOptions configures the BadgerDB-backed repo.
type BadgerOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// BadgerRepo is a TableDescriptionRepo backed by BadgerDB. Definitions are
// stored under mtd:<tenant>:<table> so one database serves every tenant.
type BadgerRepo struct {
	db *badger.DB
}

func NewBadgerRepo(opts BadgerOptions) (*BadgerRepo, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger db")
	}
	return &BadgerRepo{db: db}, nil
}

func (r *BadgerRepo) Close() error {
	return r.db.Close()
}

func badgerKey(tn, tableName string) []byte {
	return []byte(badgerKeyPrefix + tn + ":" + tableName)
}

func (r *BadgerRepo) CreateTable(ctx context.Context, def table.TableDefinition) (table.TableDefinition, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return table.TableDefinition{}, err
	}
	value, err := yaml.Marshal(def)
	if err != nil {
		return table.TableDefinition{}, errors.Wrap(err, "marshal table definition")
	}
	key := badgerKey(tn, def.Name)
	err = r.db.Update(func(txn *badger.Txn) error {
		_, gerr := txn.Get(key)
		if gerr == nil {
			return mterror.Newf(mterror.KindInvalidArgument, "table %q already exists", def.Name)
		}
		if gerr != badger.ErrKeyNotFound {
			return gerr
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return table.TableDefinition{}, err
	}
	return def, nil
}

func (r *BadgerRepo) GetTableDescription(ctx context.Context, tableName string) (table.TableDefinition, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return table.TableDefinition{}, err
	}
	var def table.TableDefinition
	err = r.db.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(badgerKey(tn, tableName))
		if gerr == badger.ErrKeyNotFound {
			return mterror.Newf(mterror.KindNotFound, "table %q not found", tableName)
		}
		if gerr != nil {
			return gerr
		}
		return item.Value(func(val []byte) error {
			return yaml.Unmarshal(val, &def)
		})
	})
	if err != nil {
		return table.TableDefinition{}, err
	}
	return def, nil
}

func (r *BadgerRepo) DeleteTable(ctx context.Context, tableName string) error {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return err
	}
	key := badgerKey(tn, tableName)
	return r.db.Update(func(txn *badger.Txn) error {
		_, gerr := txn.Get(key)
		if gerr == badger.ErrKeyNotFound {
			return mterror.Newf(mterror.KindNotFound, "table %q not found", tableName)
		}
		if gerr != nil {
			return gerr
		}
		return txn.Delete(key)
	})
}
