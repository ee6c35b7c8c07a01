// Package dynamo implements store.Backend on Amazon DynamoDB.
//
// Each collection is a table keyed by the string attribute "id". Fields listed
// in store.Config.Indexes are expected to have a global secondary index named
// store.IndexName(field) with that field as partition key; lookups on other
// fields fall back to a filtered scan.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/alvinp540/edutrack/store"
)

const backendName = "dynamodb"

// API is the subset of *dynamodb.Client used by the backend.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Backend stores documents in DynamoDB tables.
type Backend struct {
	client API
	config store.Config
	now    func() time.Time
}

// New creates a new Backend over client.
func New(client API, config store.Config) *Backend {
	return &Backend{
		client: client,
		config: config.WithDefaults(),
		now:    time.Now,
	}
}

// Name implements store.Backend.
func (b *Backend) Name() string { return backendName }

// ParseID accepts UUIDs in any form uuid.Parse understands and returns the
// canonical lowercase form.
func (b *Backend) ParseID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (b *Backend) table(c store.Collection) (string, error) {
	if !store.Known(c) {
		return "", fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	return b.config.TableName(c), nil
}

// Insert stores doc under a new UUID. Nil fields are omitted so that they
// never collide with an index key schema.
func (b *Backend) Insert(ctx context.Context, c store.Collection, doc store.Document) (string, error) {
	table, err := b.table(c)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	fields := make(map[string]any, len(doc)+2)
	for k, v := range store.Settable(doc) {
		if v != nil {
			fields[k] = v
		}
	}
	fields[store.FieldID] = id
	fields[store.FieldCreatedAt] = b.now().UTC().Format(time.RFC3339)

	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", c, err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", store.Unavailable(backendName, "PutItem", c, err)
	}
	return id, nil
}

// FindOne implements store.Backend.
func (b *Backend) FindOne(ctx context.Context, c store.Collection, f store.Filter) (store.Document, error) {
	docs, err := b.find(ctx, c, f)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// FindMany implements store.Backend. Sorting happens client side.
func (b *Backend) FindMany(ctx context.Context, c store.Collection, f store.Filter, order ...store.Ordering) ([]store.Document, error) {
	docs, err := b.find(ctx, c, f)
	if err != nil {
		return nil, err
	}
	store.SortDocuments(docs, order...)
	return docs, nil
}

// find picks the cheapest access path: GetItem on id, Query on an indexed
// field, or Scan.
func (b *Backend) find(ctx context.Context, c store.Collection, f store.Filter) ([]store.Document, error) {
	table, err := b.table(c)
	if err != nil {
		return nil, err
	}

	if id, ok := f[store.FieldID].(string); ok {
		doc, err := b.get(ctx, c, table, id)
		if err != nil || doc == nil || !store.Matches(doc, f) {
			return nil, err
		}
		return []store.Document{doc}, nil
	}

	var docs []store.Document
	if q, ok := b.indexQuery(table, c, f); ok {
		paginator := dynamodb.NewQueryPaginator(b.client, q)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, store.Unavailable(backendName, "Query", c, err)
			}
			for _, raw := range page.Items {
				docs = append(docs, unmarshalDocument(raw))
			}
		}
		return docs, nil
	}

	paginator := dynamodb.NewScanPaginator(b.client, b.scanInput(table, f))
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, store.Unavailable(backendName, "Scan", c, err)
		}
		for _, raw := range page.Items {
			docs = append(docs, unmarshalDocument(raw))
		}
	}
	return docs, nil
}

func (b *Backend) get(ctx context.Context, c store.Collection, table, id string) (store.Document, error) {
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, store.Unavailable(backendName, "GetItem", c, err)
	}
	if result.Item == nil {
		return nil, nil
	}
	return unmarshalDocument(result.Item), nil
}

// UpdateOne implements store.Backend. A nil value in set removes the attribute.
func (b *Backend) UpdateOne(ctx context.Context, c store.Collection, f store.Filter, set store.Document) (int64, error) {
	table, err := b.table(c)
	if err != nil {
		return 0, err
	}

	current, err := b.FindOne(ctx, c, f)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	set = store.Settable(set)
	if len(set) == 0 {
		return 1, nil
	}

	upd, err := buildUpdate(set)
	if err != nil {
		return 0, fmt.Errorf("marshal %s update: %w", c, err)
	}

	_, err = b.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       idKey(current.ID()),
		UpdateExpression:          aws.String(upd.expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  upd.names,
		ExpressionAttributeValues: upd.values,
	})
	if err != nil {
		// Deleted between the read and the write.
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, nil
		}
		return 0, store.Unavailable(backendName, "UpdateItem", c, err)
	}
	return 1, nil
}

// DeleteMany implements store.Backend. DynamoDB has no set-based delete, so
// matching items are deleted one by one.
func (b *Backend) DeleteMany(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	table, err := b.table(c)
	if err != nil {
		return 0, err
	}
	docs, err := b.find(ctx, c, f)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, doc := range docs {
		_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:           aws.String(table),
			Key:                 idKey(doc.ID()),
			ConditionExpression: aws.String("attribute_exists(id)"),
		})
		if err != nil {
			var condErr *types.ConditionalCheckFailedException
			if errors.As(err, &condErr) {
				continue
			}
			return deleted, store.Unavailable(backendName, "DeleteItem", c, err)
		}
		deleted++
	}
	return deleted, nil
}

// Count implements store.Backend using Select=COUNT so no items are transferred.
func (b *Backend) Count(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	table, err := b.table(c)
	if err != nil {
		return 0, err
	}

	if _, ok := f[store.FieldID]; ok {
		docs, err := b.find(ctx, c, f)
		return int64(len(docs)), err
	}

	var total int64
	if q, ok := b.indexQuery(table, c, f); ok {
		q.Select = types.SelectCount
		paginator := dynamodb.NewQueryPaginator(b.client, q)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return 0, store.Unavailable(backendName, "Query", c, err)
			}
			total += int64(page.Count)
		}
		return total, nil
	}

	scan := b.scanInput(table, f)
	scan.Select = types.SelectCount
	paginator := dynamodb.NewScanPaginator(b.client, scan)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, store.Unavailable(backendName, "Scan", c, err)
		}
		total += int64(page.Count)
	}
	return total, nil
}

// Ping lists at most one table to check credentials and connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return store.Unavailable(backendName, "ListTables", "", err)
}

// Close implements store.Backend. The SDK client holds no connection to release.
func (b *Backend) Close(context.Context) error { return nil }

// indexQuery builds a Query on the first indexed field present in f with a
// string value. The remaining conditions become the filter expression.
func (b *Backend) indexQuery(table string, c store.Collection, f store.Filter) (*dynamodb.QueryInput, bool) {
	for _, field := range b.config.Indexes[c] {
		key, ok := f[field].(string)
		if !ok {
			continue
		}

		rest := make(store.Filter, len(f))
		for k, v := range f {
			if k != field {
				rest[k] = v
			}
		}
		cond := buildFilter(rest)
		cond.names["#pk"] = field
		cond.values[":pk"] = &types.AttributeValueMemberS{Value: key}

		q := &dynamodb.QueryInput{
			TableName:                 aws.String(table),
			IndexName:                 aws.String(store.IndexName(field)),
			KeyConditionExpression:    aws.String("#pk = :pk"),
			ExpressionAttributeNames:  cond.names,
			ExpressionAttributeValues: cond.values,
		}
		if cond.expr != "" {
			q.FilterExpression = aws.String(cond.expr)
		}
		return q, true
	}
	return nil, false
}

func (b *Backend) scanInput(table string, f store.Filter) *dynamodb.ScanInput {
	in := &dynamodb.ScanInput{TableName: aws.String(table)}
	cond := buildFilter(f)
	if cond.expr != "" {
		in.FilterExpression = aws.String(cond.expr)
		in.ExpressionAttributeNames = cond.names
		if len(cond.values) > 0 {
			in.ExpressionAttributeValues = cond.values
		}
	}
	return in
}

// expression is a condition or update expression with its placeholders.
type expression struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

// buildFilter turns f into "#f0 = :v0 AND ..." with fields in sorted order so
// the expression is deterministic. Nil values match absent attributes.
func buildFilter(f store.Filter) expression {
	out := expression{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}

	var clauses []string
	for i, field := range sortedKeys(f) {
		nameKey := fmt.Sprintf("#f%d", i)
		out.names[nameKey] = field
		if f[field] == nil {
			clauses = append(clauses, fmt.Sprintf("attribute_not_exists(%s)", nameKey))
			continue
		}
		av, err := attributevalue.Marshal(f[field])
		if err != nil {
			av = &types.AttributeValueMemberS{Value: fmt.Sprint(f[field])}
		}
		valueKey := fmt.Sprintf(":v%d", i)
		out.values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	out.expr = strings.Join(clauses, " AND ")
	return out
}

// buildUpdate turns set into "SET #a0 = :val0, ... REMOVE #a1".
func buildUpdate(set store.Document) (expression, error) {
	out := expression{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}

	var setClauses, removeClauses []string
	for i, field := range sortedKeys(set) {
		nameKey := fmt.Sprintf("#attr%d", i)
		out.names[nameKey] = field
		if set[field] == nil {
			removeClauses = append(removeClauses, nameKey)
			continue
		}
		av, err := attributevalue.Marshal(set[field])
		if err != nil {
			return out, err
		}
		valueKey := fmt.Sprintf(":val%d", i)
		out.values[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	var parts []string
	if len(setClauses) > 0 {
		parts = append(parts, "SET "+strings.Join(setClauses, ", "))
	}
	if len(removeClauses) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removeClauses, ", "))
	}
	out.expr = strings.Join(parts, " ")
	if len(out.values) == 0 {
		out.values = nil
	}
	return out, nil
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		store.FieldID: &types.AttributeValueMemberS{Value: id},
	}
}

// unmarshalDocument converts a DynamoDB item to a Document. Numbers decode
// as float64.
func unmarshalDocument(raw map[string]types.AttributeValue) store.Document {
	doc := store.Document{}
	if err := attributevalue.UnmarshalMap(raw, &doc); err != nil {
		// Fall back to the attributes we can read one by one.
		for k, v := range raw {
			var val any
			if attributevalue.Unmarshal(v, &val) == nil {
				doc[k] = val
			}
		}
	}
	return doc
}
