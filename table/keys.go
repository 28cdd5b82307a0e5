package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef `yaml:"partitionKey"`
	SortKey      KeyDef `yaml:"sortKey,omitempty"`
}

type KeyDef struct {
	Name string  `yaml:"name"`
	Kind KeyKind `yaml:"kind"`
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

// AttributeKind returns the scalar kind of a key attribute value.
// Composite kinds are rejected; only scalars may appear in keys.
func AttributeKind(v types.AttributeValue) (KeyKind, error) {
	switch v.(type) {
	case *types.AttributeValueMemberS:
		return KeyKindS, nil
	case *types.AttributeValueMemberN:
		return KeyKindN, nil
	case *types.AttributeValueMemberB:
		return KeyKindB, nil
	default:
		return "", fmt.Errorf("unexpected key attribute type %T", v)
	}
}

// MarshalKeyValue converts a Go scalar to a key attribute value, checking it
// against the declared kind.
func MarshalKeyValue(kind KeyKind, v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key value of type %T: %w", v, err)
	}
	if err := attributeMatchesDefinition(kind, av); err != nil {
		return nil, err
	}
	return av, nil
}

func attributeMatchesDefinition(want KeyKind, v types.AttributeValue) error {
	got, err := AttributeKind(v)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("got KeyKind %q want %q", got, want)
	}
	return nil
}
