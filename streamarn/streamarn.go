// Package streamarn formats and parses the composite stream ARNs handed to
// tenants. A physical table's stream carries events for many tenants, so the
// ARN a tenant sees is qualified with its tenant id and virtual table name,
// letting downstream consumers demultiplex.
package streamarn

import (
	"fmt"
	"strings"
)

const separator = "::"

// Arn is a tenant-qualified stream ARN of the form
// <physicalArn>::<tenant>::<virtualTableName>.
type Arn struct {
	PhysicalArn      string
	Tenant           string
	VirtualTableName string
}

func (a Arn) String() string {
	return a.PhysicalArn + separator + a.Tenant + separator + a.VirtualTableName
}

// Format builds the composite ARN string.
func Format(physicalArn, tenant, virtualTableName string) string {
	return Arn{PhysicalArn: physicalArn, Tenant: tenant, VirtualTableName: virtualTableName}.String()
}

// Parse splits a composite ARN back into its parts.
func Parse(s string) (Arn, error) {
	idx := strings.LastIndex(s, separator)
	if idx < 0 {
		return Arn{}, fmt.Errorf("invalid multitenant stream arn %q", s)
	}
	rest, virtualTable := s[:idx], s[idx+len(separator):]
	idx = strings.LastIndex(rest, separator)
	if idx < 0 {
		return Arn{}, fmt.Errorf("invalid multitenant stream arn %q", s)
	}
	arn := Arn{
		PhysicalArn:      rest[:idx],
		Tenant:           rest[idx+len(separator):],
		VirtualTableName: virtualTable,
	}
	if arn.PhysicalArn == "" || arn.Tenant == "" || arn.VirtualTableName == "" {
		return Arn{}, fmt.Errorf("invalid multitenant stream arn %q", s)
	}
	return arn, nil
}
