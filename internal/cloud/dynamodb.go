package cloud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
)

// maxTransactItems is the DynamoDB limit on actions in one TransactWriteItems call.
const maxTransactItems = 100

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoStore keeps devices and temperature logs in two DynamoDB tables keyed by "id".
type DynamoStore struct {
	svc          DynamoAPI
	devicesTable string
	logsTable    string
}

func NewDynamoStore(svc DynamoAPI, devicesTable, logsTable string) *DynamoStore {
	return &DynamoStore{svc: svc, devicesTable: devicesTable, logsTable: logsTable}
}

// NewDynamoStoreFromConfig loads AWS credentials from the environment.
func NewDynamoStoreFromConfig(ctx context.Context, region, devicesTable, logsTable string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewDynamoStore(dynamodb.NewFromConfig(cfg), devicesTable, logsTable), nil
}

type deviceItem struct {
	ID       string `dynamodbav:"id"`
	Name     string `dynamodbav:"name"`
	Location string `dynamodbav:"location"`
	OwnerID  string `dynamodbav:"ownerId"`
	Category string `dynamodbav:"category"`
}

type logItem struct {
	ID           string    `dynamodbav:"id"`
	DeviceID     string    `dynamodbav:"deviceId"`
	Temperature  float64   `dynamodbav:"temperature"`
	Timestamp    time.Time `dynamodbav:"timestamp"`
	Breach       bool      `dynamodbav:"breach"`
	Acknowledged bool      `dynamodbav:"acknowledged"`
}

func toDeviceItem(d domain.Device) deviceItem {
	return deviceItem{ID: d.ID, Name: d.Name, Location: d.Location, OwnerID: d.OwnerID, Category: string(d.Category)}
}

func (it deviceItem) toDomain() domain.Device {
	return domain.Device{ID: it.ID, Name: it.Name, Location: it.Location, OwnerID: it.OwnerID, Category: domain.Category(it.Category)}
}

func toLogItem(l domain.TemperatureLog) logItem {
	return logItem{
		ID:           l.ID,
		DeviceID:     l.DeviceID,
		Temperature:  l.Temperature,
		Timestamp:    l.Timestamp.UTC(),
		Breach:       l.Breach,
		Acknowledged: l.Acknowledged,
	}
}

func (it logItem) toDomain() domain.TemperatureLog {
	return domain.TemperatureLog{
		ID:           it.ID,
		DeviceID:     it.DeviceID,
		Temperature:  it.Temperature,
		Timestamp:    it.Timestamp,
		Breach:       it.Breach,
		Acknowledged: it.Acknowledged,
	}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// MaxBatchSize caps ingestion chunks at the transaction item limit.
func (s *DynamoStore) MaxBatchSize() int { return maxTransactItems }

func (s *DynamoStore) GetDevice(ctx context.Context, id string) (domain.Device, error) {
	out, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.devicesTable),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Device{}, &domain.StoreError{Op: "get device", Err: err}
	}
	if out.Item == nil {
		return domain.Device{}, &domain.NotFoundError{Entity: "device", ID: id}
	}

	var it deviceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return domain.Device{}, &domain.StoreError{Op: "decode device", Err: err}
	}
	return it.toDomain(), nil
}

func (s *DynamoStore) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var items []deviceItem
	if err := s.scanAll(ctx, s.devicesTable, &items); err != nil {
		return nil, &domain.StoreError{Op: "list devices", Err: err}
	}

	out := make([]domain.Device, len(items))
	for i, it := range items {
		out[i] = it.toDomain()
	}
	return out, nil
}

func (s *DynamoStore) CreateDevice(ctx context.Context, d *domain.Device) error {
	item, err := attributevalue.MarshalMap(toDeviceItem(*d))
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}
	_, err = s.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.devicesTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return &domain.ConflictError{Entity: "device", ID: d.ID, Err: err}
	}
	if err != nil {
		return &domain.StoreError{Op: "create device", Err: err}
	}
	return nil
}

// AppendLog refuses to overwrite an existing id so the table stays append-only.
func (s *DynamoStore) AppendLog(ctx context.Context, l *domain.TemperatureLog) error {
	if err := s.requireDevices(ctx, []domain.TemperatureLog{*l}); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(toLogItem(*l))
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}
	_, err = s.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.logsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return &domain.ConflictError{Entity: "temperature log", ID: l.ID, Err: err}
	}
	if err != nil {
		return &domain.StoreError{Op: "insert log", Err: err}
	}
	return nil
}

// AppendLogs writes the chunk in a single transaction, so DynamoDB applies
// all puts or none of them.
func (s *DynamoStore) AppendLogs(ctx context.Context, logs []domain.TemperatureLog) error {
	if len(logs) == 0 {
		return nil
	}
	if len(logs) > maxTransactItems {
		return &domain.ValidationError{
			Field:  "logs",
			Reason: fmt.Sprintf("chunk of %d exceeds the %d item transaction limit", len(logs), maxTransactItems),
		}
	}
	if err := s.requireDevices(ctx, logs); err != nil {
		return err
	}

	writes := make([]types.TransactWriteItem, len(logs))
	for i, l := range logs {
		item, err := attributevalue.MarshalMap(toLogItem(l))
		if err != nil {
			return fmt.Errorf("failed to marshal log %d: %w", i, err)
		}
		writes[i] = types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.logsTable),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		}
	}

	if _, err := s.svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes}); err != nil {
		return chunkError(err, logs)
	}
	return nil
}

// chunkError maps a cancelled transaction to a conflict when one of its puts
// hit an existing id. Other cancellations, such as TransactionConflict with a
// concurrent writer, stay retryable.
func chunkError(err error, logs []domain.TemperatureLog) error {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, r := range canceled.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" && i < len(logs) {
				return &domain.ConflictError{Entity: "temperature log", ID: logs[i].ID, Err: err}
			}
		}
	}
	return &domain.StoreError{Op: "insert chunk", Err: err}
}

// requireDevices stands in for the foreign key the SQL schema has.
func (s *DynamoStore) requireDevices(ctx context.Context, logs []domain.TemperatureLog) error {
	checked := make(map[string]struct{})
	for _, l := range logs {
		if _, ok := checked[l.DeviceID]; ok {
			continue
		}
		if _, err := s.GetDevice(ctx, l.DeviceID); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		checked[l.DeviceID] = struct{}{}
	}
	return nil
}

func (s *DynamoStore) GetLog(ctx context.Context, id string) (domain.TemperatureLog, error) {
	out, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.logsTable),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.TemperatureLog{}, &domain.StoreError{Op: "get log", Err: err}
	}
	if out.Item == nil {
		return domain.TemperatureLog{}, &domain.NotFoundError{Entity: "temperature log", ID: id}
	}

	var it logItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return domain.TemperatureLog{}, &domain.StoreError{Op: "decode log", Err: err}
	}
	return it.toDomain(), nil
}

// QueryLogs scans both tables and joins in memory. The tables have no foreign
// key, so logs whose device is gone are kept with an empty device and reported
// in a warning.
func (s *DynamoStore) QueryLogs(ctx context.Context) ([]domain.LogWithDevice, error) {
	devices, err := s.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		byID[d.ID] = d
	}

	var items []logItem
	if err := s.scanAll(ctx, s.logsTable, &items); err != nil {
		return nil, &domain.StoreError{Op: "query logs", Err: err}
	}

	out, orphans := joinDevices(items, byID)
	if len(orphans) > 0 {
		log.Warn().
			Strs("device_ids", orphans).
			Str("table", s.logsTable).
			Msg("temperature logs reference unknown devices")
	}
	domain.SortByRecency(out)
	return out, nil
}

// joinDevices attaches each log's device and returns the sorted ids of
// devices that could not be found.
func joinDevices(items []logItem, byID map[string]domain.Device) ([]domain.LogWithDevice, []string) {
	out := make([]domain.LogWithDevice, len(items))
	missing := make(map[string]struct{})
	for i, it := range items {
		d, ok := byID[it.DeviceID]
		if !ok {
			missing[it.DeviceID] = struct{}{}
		}
		out[i] = domain.LogWithDevice{TemperatureLog: it.toDomain(), Device: d}
	}

	orphans := make([]string, 0, len(missing))
	for id := range missing {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	return out, orphans
}

// SetAcknowledged is conditional on the item existing; the write itself is
// always TRUE so repeats are harmless.
func (s *DynamoStore) SetAcknowledged(ctx context.Context, id string) error {
	_, err := s.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.logsTable),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET acknowledged = :ack"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ack": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return &domain.NotFoundError{Entity: "temperature log", ID: id}
	}
	if err != nil {
		return &domain.StoreError{Op: "acknowledge log", Err: err}
	}
	return nil
}

func (s *DynamoStore) scanAll(ctx context.Context, table string, out any) error {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(s.svc, &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}
