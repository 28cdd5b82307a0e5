// Package table defines the schema model shared by virtual and physical
// tables: key kinds, primary key definitions, secondary indexes and stream
// settings. The types are plain data with a few lookup helpers; they carry
// yaml tags so physical table sets can be loaded from config files.
package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDefinition describes one table, virtual or physical.
// For physical tables StreamArn holds the ARN of the table's change stream,
// if streams are enabled.
type TableDefinition struct {
	Name             string                     `yaml:"name"`
	KeyDefinitions   PrimaryKeyDefinition       `yaml:"keys"`
	SecondaryIndexes []SecondaryIndexDefinition `yaml:"secondaryIndexes,omitempty"`
	StreamsEnabled   bool                       `yaml:"streamsEnabled,omitempty"`
	StreamArn        string                     `yaml:"streamArn,omitempty"`
}

// SecondaryIndexDefinition describes one secondary index of a table.
type SecondaryIndexDefinition struct {
	Name           string               `yaml:"name"`
	KeyDefinitions PrimaryKeyDefinition `yaml:"keys"`
	Projection     ProjectionKind       `yaml:"projection,omitempty"`
}

// ProjectionKind is the attribute projection rule of a secondary index.
type ProjectionKind string

const (
	ProjectionAll      ProjectionKind = "ALL"
	ProjectionKeysOnly ProjectionKind = "KEYS_ONLY"
	ProjectionInclude  ProjectionKind = "INCLUDE"
)

// HasSortKey reports whether the table's primary key has a range attribute.
func (t TableDefinition) HasSortKey() bool {
	return t.KeyDefinitions.SortKey.Name != ""
}

// SecondaryIndex looks up a secondary index by name.
func (t TableDefinition) SecondaryIndex(name string) (SecondaryIndexDefinition, bool) {
	for _, si := range t.SecondaryIndexes {
		if si.Name == name {
			return si, true
		}
	}
	return SecondaryIndexDefinition{}, false
}

// KeyAttributeNames returns the attribute names of the primary key,
// partition key first.
func (k PrimaryKeyDefinition) KeyAttributeNames() []string {
	names := []string{k.PartitionKey.Name}
	if k.SortKey.Name != "" {
		names = append(names, k.SortKey.Name)
	}
	return names
}

// ExtractKey restricts an item to the attributes of this primary key.
// Returns an error if any key attribute is absent or of the wrong kind.
func (k PrimaryKeyDefinition) ExtractKey(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue, 2)
	part, ok := item[k.PartitionKey.Name]
	if !ok {
		return nil, fmt.Errorf("partition key %q not found", k.PartitionKey.Name)
	}
	if err := attributeMatchesDefinition(k.PartitionKey.Kind, part); err != nil {
		return nil, fmt.Errorf("partition key %q kind does not match definition: %w", k.PartitionKey.Name, err)
	}
	key[k.PartitionKey.Name] = part
	if k.SortKey.Name == "" {
		return key, nil
	}
	sort, ok := item[k.SortKey.Name]
	if !ok {
		return nil, fmt.Errorf("sort key %q not found", k.SortKey.Name)
	}
	if err := attributeMatchesDefinition(k.SortKey.Kind, sort); err != nil {
		return nil, fmt.Errorf("sort key %q kind does not match definition: %w", k.SortKey.Name, err)
	}
	key[k.SortKey.Name] = sort
	return key, nil
}
