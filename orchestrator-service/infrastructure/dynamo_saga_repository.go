package infrastructure

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ domain.SagaRepository = (*DynamoSagaRepository)(nil)

const (
	sagaKeyPrefix  = "SAGA#"
	orderKeyPrefix = "ORDER#"

	conditionalCheckFailed = "ConditionalCheckFailed"

	// StatusCreatedIndex is keyed by Status and sorted by CreatedAt
	StatusCreatedIndex = "StatusCreatedIndex"
	// OrderIndex is keyed by OrderID and sorted by CreatedAt
	OrderIndex = "OrderIndex"

	// sortableTime keeps a fixed width so CreatedAt sorts lexically
	sortableTime = "2006-01-02T15:04:05.000000000Z07:00"
)

// DynamoDBAPI is the part of the DynamoDB client the saga ledger uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoSagaRepository implements SagaRepository on a single DynamoDB table.
// Writes are conditional puts: inserts require the key to be absent and
// updates require the stored Version to match. An ORDER# item holds the id of
// the order's active saga.
type DynamoSagaRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewDynamoSagaRepository creates a new DynamoSagaRepository
func NewDynamoSagaRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *DynamoSagaRepository {
	return &DynamoSagaRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// dynamoSaga is the table item
type dynamoSaga struct {
	PK               string  `dynamodbav:"PK"`
	SagaID           string  `dynamodbav:"SagaID"`
	OrderID          string  `dynamodbav:"OrderID"`
	Status           string  `dynamodbav:"Status"`
	CurrentStep      string  `dynamodbav:"CurrentStep"`
	CompensationStep string  `dynamodbav:"CompensationStep,omitempty"`
	ErrorMessage     string  `dynamodbav:"ErrorMessage,omitempty"`
	RetryCount       int     `dynamodbav:"RetryCount"`
	CreatedAt        string  `dynamodbav:"CreatedAt"`
	UpdatedAt        string  `dynamodbav:"UpdatedAt"`
	CompletedAt      *string `dynamodbav:"CompletedAt,omitempty"`
	Version          int     `dynamodbav:"Version"`
}

// Save writes the saga with a conditional put. Inserts and terminal updates
// also write the order guard item in the same transaction, so an order never
// has two non-terminal sagas.
func (r *DynamoSagaRepository) Save(ctx context.Context, saga *domain.SagaTransaction) error {
	var (
		condition expression.ConditionBuilder
		next      models.Version
	)

	if saga.IsNew() {
		condition = expression.Name("PK").AttributeNotExists()
		next = models.NewVersion()
	} else {
		condition = expression.Name("Version").Equal(expression.Value(saga.Version.Value))
		next = saga.Version.Next()
	}

	item := toDynamo(saga)
	item.Version = next.Value

	put, err := r.sagaPut(item, condition)
	if err != nil {
		return err
	}

	switch {
	case saga.IsNew() && !saga.Status.IsTerminal():
		err = r.insertWithGuard(ctx, saga, put)
	case !saga.IsNew() && saga.Status.IsTerminal():
		err = r.updateReleasingGuard(ctx, saga, put)
	default:
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 put.TableName,
			Item:                      put.Item,
			ConditionExpression:       put.ConditionExpression,
			ExpressionAttributeNames:  put.ExpressionAttributeNames,
			ExpressionAttributeValues: put.ExpressionAttributeValues,
		})
		err = saveSagaError(err, saga)
	}
	if err != nil {
		return err
	}

	saga.Version = next

	r.logger.Debug("saga saved",
		zap.String("saga_id", saga.ID.String()),
		zap.String("status", saga.Status.String()),
		zap.Int("version", next.Value),
	)

	return nil
}

// dynamoOrderGuard marks the order's single non-terminal saga
type dynamoOrderGuard struct {
	PK           string `dynamodbav:"PK"`
	ActiveSagaID string `dynamodbav:"ActiveSagaID"`
}

func (r *DynamoSagaRepository) sagaPut(item *dynamoSaga, condition expression.ConditionBuilder) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal saga")
	}

	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build expression")
	}

	return &types.Put{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func (r *DynamoSagaRepository) insertWithGuard(ctx context.Context, saga *domain.SagaTransaction, put *types.Put) error {
	guard, err := attributevalue.MarshalMap(dynamoOrderGuard{
		PK:           orderKeyPrefix + saga.OrderID.String(),
		ActiveSagaID: saga.ID.String(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal order guard")
	}

	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeNotExists()).Build()
	if err != nil {
		return errors.Wrap(err, "failed to build expression")
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{Put: &types.Put{
				TableName:                 aws.String(r.tableName),
				Item:                      guard,
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}},
		},
	})
	return saveSagaError(err, saga)
}

func (r *DynamoSagaRepository) updateReleasingGuard(ctx context.Context, saga *domain.SagaTransaction, put *types.Put) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": orderKeyPrefix + saga.OrderID.String()})
	if err != nil {
		return errors.Wrap(err, "failed to marshal key")
	}

	owned := expression.Name("PK").AttributeNotExists().
		Or(expression.Name("ActiveSagaID").Equal(expression.Value(saga.ID.String())))
	expr, err := expression.NewBuilder().WithCondition(owned).Build()
	if err != nil {
		return errors.Wrap(err, "failed to build expression")
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{Delete: &types.Delete{
				TableName:                 aws.String(r.tableName),
				Key:                       key,
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}},
		},
	})
	return saveSagaError(err, saga)
}

// saveSagaError maps failed conditions. Item 1 of a transaction is the order
// guard; a failed guard on insert means another saga is active.
func saveSagaError(err error, saga *domain.SagaTransaction) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return errors.Wrapf(domain.ErrVersionConflict, "saga %s", saga.ID)
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		reasons := canceled.CancellationReasons
		if saga.IsNew() && len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionalCheckFailed {
			return errors.Wrapf(domain.ErrActiveSagaExists, "order %s", saga.OrderID)
		}
		return errors.Wrapf(domain.ErrVersionConflict, "saga %s", saga.ID)
	}

	return errors.Wrap(err, "failed to save saga")
}

// FindByID finds a saga by ID
func (r *DynamoSagaRepository) FindByID(ctx context.Context, id models.ID) (*domain.SagaTransaction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": sagaKeyPrefix + id.String()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal key")
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get saga")
	}

	if len(out.Item) == 0 {
		return nil, errors.Wrapf(domain.ErrSagaNotFound, "saga %s", id)
	}

	return unmarshalSaga(out.Item)
}

// FindByStatusBefore queries the status index for sagas created before the cutoff
func (r *DynamoSagaRepository) FindByStatusBefore(ctx context.Context, status domain.SagaStatus, before time.Time) ([]*domain.SagaTransaction, error) {
	keyCond := expression.Key("Status").Equal(expression.Value(string(status))).
		And(expression.Key("CreatedAt").LessThan(expression.Value(formatTime(before))))

	return r.query(ctx, StatusCreatedIndex, keyCond, true, 0)
}

// FindByOrderID queries the order index
func (r *DynamoSagaRepository) FindByOrderID(ctx context.Context, orderID models.ID) ([]*domain.SagaTransaction, error) {
	keyCond := expression.Key("OrderID").Equal(expression.Value(orderID.String()))

	return r.query(ctx, OrderIndex, keyCond, true, 0)
}

// List lists sagas newest first. Without a status filter it scans the table,
// skipping order guard items.
func (r *DynamoSagaRepository) List(ctx context.Context, filter domain.SagaFilter) ([]*domain.SagaTransaction, error) {
	if filter.Status != "" {
		keyCond := expression.Key("Status").Equal(expression.Value(string(filter.Status)))
		return r.query(ctx, StatusCreatedIndex, keyCond, false, filter.Limit)
	}

	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("PK").BeginsWith(sagaKeyPrefix)).
		Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build expression")
	}

	var sagas []*domain.SagaTransaction
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan sagas")
		}

		for _, item := range page.Items {
			saga, err := unmarshalSaga(item)
			if err != nil {
				return nil, err
			}
			sagas = append(sagas, saga)
		}
	}

	sort.Slice(sagas, func(i, j int) bool {
		return sagas[i].Timestamps.CreatedAt.After(sagas[j].Timestamps.CreatedAt)
	})

	if filter.Limit > 0 && len(sagas) > filter.Limit {
		sagas = sagas[:filter.Limit]
	}

	return sagas, nil
}

func (r *DynamoSagaRepository) query(
	ctx context.Context,
	index string,
	keyCond expression.KeyConditionBuilder,
	ascending bool,
	limit int,
) ([]*domain.SagaTransaction, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build expression")
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(ascending),
	}

	var sagas []*domain.SagaTransaction
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query %s", index)
		}

		for _, item := range page.Items {
			saga, err := unmarshalSaga(item)
			if err != nil {
				return nil, err
			}
			sagas = append(sagas, saga)
			if limit > 0 && len(sagas) == limit {
				return sagas, nil
			}
		}
	}

	return sagas, nil
}

func unmarshalSaga(item map[string]types.AttributeValue) (*domain.SagaTransaction, error) {
	var ds dynamoSaga
	if err := attributevalue.UnmarshalMap(item, &ds); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal saga")
	}
	return ds.toDomain()
}

func toDynamo(saga *domain.SagaTransaction) *dynamoSaga {
	item := &dynamoSaga{
		PK:               sagaKeyPrefix + saga.ID.String(),
		SagaID:           saga.ID.String(),
		OrderID:          saga.OrderID.String(),
		Status:           string(saga.Status),
		CurrentStep:      string(saga.CurrentStep),
		CompensationStep: string(saga.CompensationStep),
		ErrorMessage:     saga.ErrorMessage,
		RetryCount:       saga.RetryCount,
		CreatedAt:        formatTime(saga.Timestamps.CreatedAt),
		UpdatedAt:        formatTime(saga.Timestamps.UpdatedAt),
		Version:          saga.Version.Value,
	}

	if saga.CompletedAt != nil {
		completedAt := formatTime(*saga.CompletedAt)
		item.CompletedAt = &completedAt
	}

	return item
}

func (ds *dynamoSaga) toDomain() (*domain.SagaTransaction, error) {
	status, err := domain.ParseSagaStatus(ds.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "saga %s", ds.SagaID)
	}

	createdAt, err := time.Parse(sortableTime, ds.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "saga %s created_at", ds.SagaID)
	}

	updatedAt, err := time.Parse(sortableTime, ds.UpdatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "saga %s updated_at", ds.SagaID)
	}

	saga := &domain.SagaTransaction{
		ID:               models.ID(ds.SagaID),
		OrderID:          models.ID(ds.OrderID),
		Status:           status,
		CurrentStep:      domain.SagaStep(ds.CurrentStep),
		CompensationStep: domain.SagaStep(ds.CompensationStep),
		ErrorMessage:     ds.ErrorMessage,
		RetryCount:       ds.RetryCount,
		Timestamps: models.Timestamps{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Version: models.Version{Value: ds.Version},
	}

	if ds.CompletedAt != nil {
		completedAt, err := time.Parse(sortableTime, *ds.CompletedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "saga %s completed_at", ds.SagaID)
		}
		saga.CompletedAt = &completedAt
	}

	return saga, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}
