package remote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Single-table key layout.
//
//	PK     = <collection>#<id>      SK     = ROW
//	GSI1PK = <collection>#<dataset> GSI1SK = <id>
//
// Dataset rows use GSI1PK = datasets so they can be listed without a scan.
const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrGSI1PK     = "GSI1PK"
	attrGSI1SK     = "GSI1SK"
	attrCollection = "collection"

	rowSortKey = "ROW"
)

// DynamoDBAPI is the subset of the DynamoDB client the backend uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBBackend stores every collection in one table.
type DynamoDBBackend struct {
	client    DynamoDBAPI
	tableName string
	indexName string
}

// NewDynamoDBBackend wraps client. indexName is the GSI over GSI1PK/GSI1SK.
func NewDynamoDBBackend(client DynamoDBAPI, tableName, indexName string) *DynamoDBBackend {
	if indexName == "" {
		indexName = "GSI1"
	}
	return &DynamoDBBackend{
		client:    client,
		tableName: tableName,
		indexName: indexName,
	}
}

func (b *DynamoDBBackend) Name() string { return "dynamodb" }

func primaryKey(c graph.Collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: c.String() + "#" + id},
		attrSK: &types.AttributeValueMemberS{Value: rowSortKey},
	}
}

func partitionOf(c graph.Collection, datasetID string) string {
	if !c.DatasetScoped() {
		return graph.CollectionDatasets.String()
	}
	return c.String() + "#" + datasetID
}

func (b *DynamoDBBackend) toItem(row graph.Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, err
	}
	for k, v := range primaryKey(row.Collection(), row.RecordID()) {
		item[k] = v
	}
	item[attrGSI1PK] = &types.AttributeValueMemberS{Value: partitionOf(row.Collection(), row.DatasetID())}
	item[attrGSI1SK] = &types.AttributeValueMemberS{Value: row.RecordID()}
	item[attrCollection] = &types.AttributeValueMemberS{Value: row.Collection().String()}
	return item, nil
}

// fromItem strips the key attributes and re-encodes the row as JSON.
func fromItem(item map[string]types.AttributeValue) (json.RawMessage, error) {
	var row map[string]any
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, err
	}
	for _, k := range []string{attrPK, attrSK, attrGSI1PK, attrGSI1SK, attrCollection} {
		delete(row, k)
	}
	return json.Marshal(row)
}

func fromItems(items []map[string]types.AttributeValue, out []json.RawMessage) ([]json.RawMessage, error) {
	for _, item := range items {
		raw, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Select resolves an id filter with GetItem, a dataset filter with a query on
// the index and anything else with a scan. Remaining filters become a filter
// expression.
func (b *DynamoDBBackend) Select(ctx context.Context, c graph.Collection, filters ...Filter) ([]json.RawMessage, error) {
	var byID, byDataset *Filter
	rest := make([]Filter, 0, len(filters))
	for i := range filters {
		switch {
		case filters[i].Column == "id" && byID == nil:
			byID = &filters[i]
		case filters[i].Column == "dataset" && c.DatasetScoped() && byDataset == nil:
			byDataset = &filters[i]
		default:
			rest = append(rest, filters[i])
		}
	}

	switch {
	case byID != nil:
		return b.get(ctx, c, byID.Value, append(rest, optional(byDataset)...))
	case byDataset != nil:
		return b.query(ctx, partitionOf(c, byDataset.Value), rest)
	default:
		return b.scan(ctx, c, rest)
	}
}

func optional(f *Filter) []Filter {
	if f == nil {
		return nil
	}
	return []Filter{*f}
}

func (b *DynamoDBBackend) get(ctx context.Context, c graph.Collection, id string, rest []Filter) ([]json.RawMessage, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key:       primaryKey(c, id),
	})
	if err != nil {
		return nil, classifyDynamo(err)
	}
	if out.Item == nil {
		return []json.RawMessage{}, nil
	}

	raw, err := fromItem(out.Item)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		if !matches(row, rest) {
			return []json.RawMessage{}, nil
		}
	}
	return []json.RawMessage{raw}, nil
}

func filterCondition(filters []Filter) (expression.ConditionBuilder, bool) {
	if len(filters) == 0 {
		return expression.ConditionBuilder{}, false
	}
	cond := expression.Name(filters[0].Column).Equal(expression.Value(filters[0].Value))
	for _, f := range filters[1:] {
		cond = cond.And(expression.Name(f.Column).Equal(expression.Value(f.Value)))
	}
	return cond, true
}

func (b *DynamoDBBackend) query(ctx context.Context, partition string, rest []Filter) ([]json.RawMessage, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrGSI1PK).Equal(expression.Value(partition)))
	if cond, ok := filterCondition(rest); ok {
		builder = builder.WithFilter(cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:                 aws.String(b.tableName),
		IndexName:                 aws.String(b.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	out := make([]json.RawMessage, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyDynamo(err)
		}
		if out, err = fromItems(page.Items, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *DynamoDBBackend) scan(ctx context.Context, c graph.Collection, rest []Filter) ([]json.RawMessage, error) {
	cond := expression.Name(attrCollection).Equal(expression.Value(c.String()))
	if extra, ok := filterCondition(rest); ok {
		cond = cond.And(extra)
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName:                 aws.String(b.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	out := make([]json.RawMessage, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyDynamo(err)
		}
		if out, err = fromItems(page.Items, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *DynamoDBBackend) Insert(ctx context.Context, row graph.Record) error {
	item, err := b.toItem(row)
	if err != nil {
		return err
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if isConditionFailed(err) {
		return appErrors.NewConflictError("duplicate id " + row.RecordID() + " in " + row.Collection().String())
	}
	return classifyDynamo(err)
}

func (b *DynamoDBBackend) Update(ctx context.Context, row graph.Record) error {
	item, err := b.toItem(row)
	if err != nil {
		return err
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return appErrors.NewNotFoundError(row.Collection().String(), row.RecordID())
	}
	return classifyDynamo(err)
}

func (b *DynamoDBBackend) Delete(ctx context.Context, c graph.Collection, id string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key:       primaryKey(c, id),
	})
	return classifyDynamo(err)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// classifyDynamo turns throttling into UNAVAILABLE. Other errors pass through.
func classifyDynamo(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return appErrors.NewUnavailableError("dynamodb").WithCause(err)
		}
	}
	return err
}
