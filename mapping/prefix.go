// Package mapping implements the virtual-to-physical rewriting engine: the
// tenant key prefix, per-field mappers, table mappings and their factory, and
// the item, condition and query/scan request mappers.
package mapping

import (
	"bytes"
	"strings"

	"github.com/sharedtable/mtdynamo/mterror"
)

// Delimiter separates the tenant, the virtual table name and the original
// value inside an encoded key. 0x2E is '.'.
const Delimiter = '.'

var delimiterBytes = []byte{Delimiter}

// EncodeString encodes a scalar string value into its tenant-qualified form
// <tenant>.<index>.<value>. The tenant and index must not contain the
// delimiter; the value may.
func EncodeString(tenant, index, value string) (string, error) {
	if err := checkQualifier(tenant, index); err != nil {
		return "", err
	}
	return tenant + string(Delimiter) + index + string(Delimiter) + value, nil
}

// DecodeString splits an encoded value on its first two delimiters.
// Everything after the second delimiter is the original value, verbatim.
func DecodeString(encoded string) (tenant, index, value string, err error) {
	tenant, rest, ok := strings.Cut(encoded, string(Delimiter))
	if !ok {
		return "", "", "", mterror.Newf(mterror.KindCorrupt, "encoded value %q lacks tenant delimiter", encoded)
	}
	index, value, ok = strings.Cut(rest, string(Delimiter))
	if !ok {
		return "", "", "", mterror.Newf(mterror.KindCorrupt, "encoded value %q lacks index delimiter", encoded)
	}
	return tenant, index, value, nil
}

// EncodeBinary prepends the UTF-8 bytes of <tenant>.<index>. to the raw
// value bytes.
func EncodeBinary(tenant, index string, value []byte) ([]byte, error) {
	if err := checkQualifier(tenant, index); err != nil {
		return nil, err
	}
	encoded := make([]byte, 0, len(tenant)+len(index)+2+len(value))
	encoded = append(encoded, tenant...)
	encoded = append(encoded, Delimiter)
	encoded = append(encoded, index...)
	encoded = append(encoded, Delimiter)
	encoded = append(encoded, value...)
	return encoded, nil
}

// DecodeBinary splits an encoded byte slice on its first two delimiter
// bytes. The tail passes through untouched, so binary payloads containing
// the delimiter byte round-trip.
func DecodeBinary(encoded []byte) (tenant, index string, value []byte, err error) {
	first := bytes.Index(encoded, delimiterBytes)
	if first < 0 {
		return "", "", nil, mterror.Newf(mterror.KindCorrupt, "encoded binary value lacks tenant delimiter")
	}
	second := bytes.Index(encoded[first+1:], delimiterBytes)
	if second < 0 {
		return "", "", nil, mterror.Newf(mterror.KindCorrupt, "encoded binary value lacks index delimiter")
	}
	second += first + 1
	return string(encoded[:first]), string(encoded[first+1 : second]), encoded[second+1:], nil
}

func checkQualifier(tenant, index string) error {
	if tenant == "" {
		return mterror.Newf(mterror.KindInvalidArgument, "tenant must not be empty")
	}
	if strings.ContainsRune(tenant, Delimiter) {
		return mterror.Newf(mterror.KindInvalidArgument, "tenant %q contains delimiter %q", tenant, Delimiter)
	}
	if strings.ContainsRune(index, Delimiter) {
		return mterror.Newf(mterror.KindInvalidArgument, "index name %q contains delimiter %q", index, Delimiter)
	}
	return nil
}
