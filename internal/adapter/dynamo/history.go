package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// putItemAPI is the slice of the DynamoDB client the mirror uses.
type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// historyItem is the DynamoDB shape of a history row. beach_name is the
// partition key and record_timestamp_utc the sort key.
type historyItem struct {
	BeachName          string `dynamodbav:"beach_name"`
	RecordedAt         string `dynamodbav:"record_timestamp_utc"`
	Status             string `dynamodbav:"status"`
	LastUpdatedFromPDF string `dynamodbav:"last_updated_from_pdf"`
	Note               string `dynamodbav:"note"`
}

// HistoryMirror copies history rows into a DynamoDB table.
type HistoryMirror struct {
	client    putItemAPI
	tableName string
	logger    *slog.Logger
}

// NewHistoryMirror builds a mirror using the default AWS credential chain.
func NewHistoryMirror(ctx context.Context, tableName string, logger *slog.Logger) (*HistoryMirror, error) {
	if tableName == "" {
		return nil, errors.New("dynamodb table name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newHistoryMirror(dynamodb.NewFromConfig(cfg), tableName, logger), nil
}

func newHistoryMirror(client putItemAPI, tableName string, logger *slog.Logger) *HistoryMirror {
	return &HistoryMirror{client: client, tableName: tableName, logger: logger}
}

func (m *HistoryMirror) MirrorHistory(ctx context.Context, entry domain.HistoryEntry) error {
	item, err := attributevalue.MarshalMap(historyItem{
		BeachName:          entry.BeachName,
		RecordedAt:         entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		Status:             string(entry.Status),
		LastUpdatedFromPDF: entry.LastUpdatedFromPDF,
		Note:               entry.Note,
	})
	if err != nil {
		return fmt.Errorf("marshal history item: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put history item in %s: %w", m.tableName, err)
	}

	m.logger.Debug("history mirrored", "beach", entry.BeachName, "table", m.tableName)
	return nil
}
