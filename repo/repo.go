package repo

import (
	"context"
	"sync"

	"github.com/sharedtable/mtdynamo/mterror"
	"github.com/sharedtable/mtdynamo/table"
	"github.com/sharedtable/mtdynamo/tenant"
)

// TableDescriptionRepo persists virtual table definitions per tenant. The
// tenant is taken from the request context; two tenants can own virtual
// tables with the same name without colliding.
type TableDescriptionRepo interface {
	CreateTable(ctx context.Context, def table.TableDefinition) (table.TableDefinition, error)
	GetTableDescription(ctx context.Context, tableName string) (table.TableDefinition, error)
	DeleteTable(ctx context.Context, tableName string) error
}

// MemRepo is an in-memory TableDescriptionRepo.
type MemRepo struct {
	mu     sync.RWMutex
	tables map[string]table.TableDefinition
}

func NewMemRepo() *MemRepo {
	return &MemRepo{tables: make(map[string]table.TableDefinition)}
}

func (r *MemRepo) CreateTable(ctx context.Context, def table.TableDefinition) (table.TableDefinition, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return table.TableDefinition{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tn + "\x00" + def.Name
	if _, exists := r.tables[key]; exists {
		return table.TableDefinition{}, mterror.Newf(mterror.KindInvalidArgument, "table %q already exists", def.Name)
	}
	r.tables[key] = def
	return def, nil
}

func (r *MemRepo) GetTableDescription(ctx context.Context, tableName string) (table.TableDefinition, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return table.TableDefinition{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tables[tn+"\x00"+tableName]
	if !ok {
		return table.TableDefinition{}, mterror.Newf(mterror.KindNotFound, "table %q not found", tableName)
	}
	return def, nil
}

func (r *MemRepo) DeleteTable(ctx context.Context, tableName string) error {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tn + "\x00" + tableName
	if _, ok := r.tables[key]; !ok {
		return mterror.Newf(mterror.KindNotFound, "table %q not found", tableName)
	}
	delete(r.tables, key)
	return nil
}
