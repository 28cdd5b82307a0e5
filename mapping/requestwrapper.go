package mapping

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
)

// RequestWrapper is a capability interface over the request shapes that
// carry condition expressions. The "primary expression" is the update
// expression for UpdateItem and the condition expression otherwise; the
// filter expression is a separate condition where the request has one.
// Methods that do not apply to a given request shape return an Unsupported
// error.
type RequestWrapper interface {
	ExpressionAttributeNames() map[string]string
	PutExpressionAttributeName(alias, name string)
	ExpressionAttributeValues() map[string]types.AttributeValue
	PutExpressionAttributeValue(alias string, v types.AttributeValue)

	PrimaryExpression() (*string, error)
	SetPrimaryExpression(expr string) error
	FilterExpression() (*string, error)
	SetFilterExpression(expr string) error

	IndexName() (*string, error)
	SetIndexName(name string) error

	LegacyExpression() (map[string]types.Condition, error)
	SetLegacyExpression(conditions map[string]types.Condition) error

	ExclusiveStartKey() (map[string]types.AttributeValue, error)
	SetExclusiveStartKey(key map[string]types.AttributeValue) error
}

func errNotApplicable(method, request string) error {
	return mterror.Newf(mterror.KindUnsupported, "%s does not apply to %s", method, request)
}

// putItemRequestWrapper adapts a PutItemInput. The primary expression is the
// condition expression; there is no separate filter.
type putItemRequestWrapper struct {
	in *dynamodb.PutItemInput
}

func NewPutItemRequestWrapper(in *dynamodb.PutItemInput) RequestWrapper {
	return &putItemRequestWrapper{in: in}
}

func (w *putItemRequestWrapper) ExpressionAttributeNames() map[string]string {
	return w.in.ExpressionAttributeNames
}

func (w *putItemRequestWrapper) PutExpressionAttributeName(alias, name string) {
	if w.in.ExpressionAttributeNames == nil {
		w.in.ExpressionAttributeNames = make(map[string]string)
	}
	w.in.ExpressionAttributeNames[alias] = name
}

func (w *putItemRequestWrapper) ExpressionAttributeValues() map[string]types.AttributeValue {
	return w.in.ExpressionAttributeValues
}

func (w *putItemRequestWrapper) PutExpressionAttributeValue(alias string, v types.AttributeValue) {
	if w.in.ExpressionAttributeValues == nil {
		w.in.ExpressionAttributeValues = make(map[string]types.AttributeValue)
	}
	w.in.ExpressionAttributeValues[alias] = v
}

func (w *putItemRequestWrapper) PrimaryExpression() (*string, error) {
	return w.in.ConditionExpression, nil
}

func (w *putItemRequestWrapper) SetPrimaryExpression(expr string) error {
	w.in.ConditionExpression = aws.String(expr)
	return nil
}

func (w *putItemRequestWrapper) FilterExpression() (*string, error) { return nil, nil }
func (w *putItemRequestWrapper) SetFilterExpression(string) error   { return nil }

func (w *putItemRequestWrapper) IndexName() (*string, error) {
	return nil, errNotApplicable("IndexName", "PutItem")
}

func (w *putItemRequestWrapper) SetIndexName(string) error {
	return errNotApplicable("SetIndexName", "PutItem")
}

func (w *putItemRequestWrapper) LegacyExpression() (map[string]types.Condition, error) {
	return nil, errNotApplicable("LegacyExpression", "PutItem")
}

func (w *putItemRequestWrapper) SetLegacyExpression(map[string]types.Condition) error {
	return errNotApplicable("SetLegacyExpression", "PutItem")
}

func (w *putItemRequestWrapper) ExclusiveStartKey() (map[string]types.AttributeValue, error) {
	return nil, errNotApplicable("ExclusiveStartKey", "PutItem")
}

func (w *putItemRequestWrapper) SetExclusiveStartKey(map[string]types.AttributeValue) error {
	return errNotApplicable("SetExclusiveStartKey", "PutItem")
}

// updateItemRequestWrapper adapts an UpdateItemInput. The primary expression
// is the update expression; the filter slot is the condition expression.
type updateItemRequestWrapper struct {
	in *dynamodb.UpdateItemInput
}

func NewUpdateItemRequestWrapper(in *dynamodb.UpdateItemInput) RequestWrapper {
	return &updateItemRequestWrapper{in: in}
}

func (w *updateItemRequestWrapper) ExpressionAttributeNames() map[string]string {
	return w.in.ExpressionAttributeNames
}

func (w *updateItemRequestWrapper) PutExpressionAttributeName(alias, name string) {
	if w.in.ExpressionAttributeNames == nil {
		w.in.ExpressionAttributeNames = make(map[string]string)
	}
	w.in.ExpressionAttributeNames[alias] = name
}

func (w *updateItemRequestWrapper) ExpressionAttributeValues() map[string]types.AttributeValue {
	return w.in.ExpressionAttributeValues
}

func (w *updateItemRequestWrapper) PutExpressionAttributeValue(alias string, v types.AttributeValue) {
	if w.in.ExpressionAttributeValues == nil {
		w.in.ExpressionAttributeValues = make(map[string]types.AttributeValue)
	}
	w.in.ExpressionAttributeValues[alias] = v
}

func (w *updateItemRequestWrapper) PrimaryExpression() (*string, error) {
	return w.in.UpdateExpression, nil
}

func (w *updateItemRequestWrapper) SetPrimaryExpression(expr string) error {
	w.in.UpdateExpression = aws.String(expr)
	return nil
}

func (w *updateItemRequestWrapper) FilterExpression() (*string, error) {
	return w.in.ConditionExpression, nil
}

func (w *updateItemRequestWrapper) SetFilterExpression(expr string) error {
	w.in.ConditionExpression = aws.String(expr)
	return nil
}

func (w *updateItemRequestWrapper) IndexName() (*string, error) {
	return nil, errNotApplicable("IndexName", "UpdateItem")
}

func (w *updateItemRequestWrapper) SetIndexName(string) error {
	return errNotApplicable("SetIndexName", "UpdateItem")
}

func (w *updateItemRequestWrapper) LegacyExpression() (map[string]types.Condition, error) {
	return nil, errNotApplicable("LegacyExpression", "UpdateItem")
}

func (w *updateItemRequestWrapper) SetLegacyExpression(map[string]types.Condition) error {
	return errNotApplicable("SetLegacyExpression", "UpdateItem")
}

func (w *updateItemRequestWrapper) ExclusiveStartKey() (map[string]types.AttributeValue, error) {
	return nil, errNotApplicable("ExclusiveStartKey", "UpdateItem")
}

func (w *updateItemRequestWrapper) SetExclusiveStartKey(map[string]types.AttributeValue) error {
	return errNotApplicable("SetExclusiveStartKey", "UpdateItem")
}

// deleteItemRequestWrapper adapts a DeleteItemInput. No filter expression
// exists on delete.
type deleteItemRequestWrapper struct {
	in *dynamodb.DeleteItemInput
}

func NewDeleteItemRequestWrapper(in *dynamodb.DeleteItemInput) RequestWrapper {
	return &deleteItemRequestWrapper{in: in}
}

func (w *deleteItemRequestWrapper) ExpressionAttributeNames() map[string]string {
	return w.in.ExpressionAttributeNames
}

func (w *deleteItemRequestWrapper) PutExpressionAttributeName(alias, name string) {
	if w.in.ExpressionAttributeNames == nil {
		w.in.ExpressionAttributeNames = make(map[string]string)
	}
	w.in.ExpressionAttributeNames[alias] = name
}

func (w *deleteItemRequestWrapper) ExpressionAttributeValues() map[string]types.AttributeValue {
	return w.in.ExpressionAttributeValues
}

func (w *deleteItemRequestWrapper) PutExpressionAttributeValue(alias string, v types.AttributeValue) {
	if w.in.ExpressionAttributeValues == nil {
		w.in.ExpressionAttributeValues = make(map[string]types.AttributeValue)
	}
	w.in.ExpressionAttributeValues[alias] = v
}

func (w *deleteItemRequestWrapper) PrimaryExpression() (*string, error) {
	return w.in.ConditionExpression, nil
}

func (w *deleteItemRequestWrapper) SetPrimaryExpression(expr string) error {
	w.in.ConditionExpression = aws.String(expr)
	return nil
}

func (w *deleteItemRequestWrapper) FilterExpression() (*string, error) { return nil, nil }
func (w *deleteItemRequestWrapper) SetFilterExpression(string) error   { return nil }

func (w *deleteItemRequestWrapper) IndexName() (*string, error) {
	return nil, errNotApplicable("IndexName", "DeleteItem")
}

func (w *deleteItemRequestWrapper) SetIndexName(string) error {
	return errNotApplicable("SetIndexName", "DeleteItem")
}

func (w *deleteItemRequestWrapper) LegacyExpression() (map[string]types.Condition, error) {
	return nil, errNotApplicable("LegacyExpression", "DeleteItem")
}

func (w *deleteItemRequestWrapper) SetLegacyExpression(map[string]types.Condition) error {
	return errNotApplicable("SetLegacyExpression", "DeleteItem")
}

func (w *deleteItemRequestWrapper) ExclusiveStartKey() (map[string]types.AttributeValue, error) {
	return nil, errNotApplicable("ExclusiveStartKey", "DeleteItem")
}

func (w *deleteItemRequestWrapper) SetExclusiveStartKey(map[string]types.AttributeValue) error {
	return errNotApplicable("SetExclusiveStartKey", "DeleteItem")
}

// queryRequestWrapper adapts a QueryInput. The primary expression is the key
// condition expression; the legacy slot is KeyConditions.
type queryRequestWrapper struct {
	in *dynamodb.QueryInput
}

func (w *queryRequestWrapper) ExpressionAttributeNames() map[string]string {
	return w.in.ExpressionAttributeNames
}

func (w *queryRequestWrapper) PutExpressionAttributeName(alias, name string) {
	if w.in.ExpressionAttributeNames == nil {
		w.in.ExpressionAttributeNames = make(map[string]string)
	}
	w.in.ExpressionAttributeNames[alias] = name
}

func (w *queryRequestWrapper) ExpressionAttributeValues() map[string]types.AttributeValue {
	return w.in.ExpressionAttributeValues
}

func (w *queryRequestWrapper) PutExpressionAttributeValue(alias string, v types.AttributeValue) {
	if w.in.ExpressionAttributeValues == nil {
		w.in.ExpressionAttributeValues = make(map[string]types.AttributeValue)
	}
	w.in.ExpressionAttributeValues[alias] = v
}

func (w *queryRequestWrapper) PrimaryExpression() (*string, error) {
	return w.in.KeyConditionExpression, nil
}

func (w *queryRequestWrapper) SetPrimaryExpression(expr string) error {
	w.in.KeyConditionExpression = aws.String(expr)
	return nil
}

func (w *queryRequestWrapper) FilterExpression() (*string, error) {
	return w.in.FilterExpression, nil
}

func (w *queryRequestWrapper) SetFilterExpression(expr string) error {
	w.in.FilterExpression = aws.String(expr)
	return nil
}

func (w *queryRequestWrapper) IndexName() (*string, error) { return w.in.IndexName, nil }

func (w *queryRequestWrapper) SetIndexName(name string) error {
	w.in.IndexName = aws.String(name)
	return nil
}

func (w *queryRequestWrapper) LegacyExpression() (map[string]types.Condition, error) {
	return w.in.KeyConditions, nil
}

func (w *queryRequestWrapper) SetLegacyExpression(conditions map[string]types.Condition) error {
	w.in.KeyConditions = conditions
	return nil
}

func (w *queryRequestWrapper) ExclusiveStartKey() (map[string]types.AttributeValue, error) {
	return w.in.ExclusiveStartKey, nil
}

func (w *queryRequestWrapper) SetExclusiveStartKey(key map[string]types.AttributeValue) error {
	w.in.ExclusiveStartKey = key
	return nil
}

// scanRequestWrapper adapts a ScanInput. There is no primary expression; the
// legacy slot is ScanFilter.
type scanRequestWrapper struct {
	in *dynamodb.ScanInput
}

func (w *scanRequestWrapper) ExpressionAttributeNames() map[string]string {
	return w.in.ExpressionAttributeNames
}

func (w *scanRequestWrapper) PutExpressionAttributeName(alias, name string) {
	if w.in.ExpressionAttributeNames == nil {
		w.in.ExpressionAttributeNames = make(map[string]string)
	}
	w.in.ExpressionAttributeNames[alias] = name
}

func (w *scanRequestWrapper) ExpressionAttributeValues() map[string]types.AttributeValue {
	return w.in.ExpressionAttributeValues
}

func (w *scanRequestWrapper) PutExpressionAttributeValue(alias string, v types.AttributeValue) {
	if w.in.ExpressionAttributeValues == nil {
		w.in.ExpressionAttributeValues = make(map[string]types.AttributeValue)
	}
	w.in.ExpressionAttributeValues[alias] = v
}

func (w *scanRequestWrapper) PrimaryExpression() (*string, error) { return nil, nil }
func (w *scanRequestWrapper) SetPrimaryExpression(string) error   { return nil }

func (w *scanRequestWrapper) FilterExpression() (*string, error) {
	return w.in.FilterExpression, nil
}

func (w *scanRequestWrapper) SetFilterExpression(expr string) error {
	w.in.FilterExpression = aws.String(expr)
	return nil
}

func (w *scanRequestWrapper) IndexName() (*string, error) { return w.in.IndexName, nil }

func (w *scanRequestWrapper) SetIndexName(name string) error {
	w.in.IndexName = aws.String(name)
	return nil
}

func (w *scanRequestWrapper) LegacyExpression() (map[string]types.Condition, error) {
	return w.in.ScanFilter, nil
}

func (w *scanRequestWrapper) SetLegacyExpression(conditions map[string]types.Condition) error {
	w.in.ScanFilter = conditions
	return nil
}

func (w *scanRequestWrapper) ExclusiveStartKey() (map[string]types.AttributeValue, error) {
	return w.in.ExclusiveStartKey, nil
}

func (w *scanRequestWrapper) SetExclusiveStartKey(key map[string]types.AttributeValue) error {
	w.in.ExclusiveStartKey = key
	return nil
}
