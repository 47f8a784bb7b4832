package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tendant/timed-content/pkg/timedcontent"
)

const backendName = "dynamodb"

// DefaultKeyAttribute is the primary key attribute name
const DefaultKeyAttribute = "pk"

// API is the subset of the DynamoDB client used by the store
type API interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Config options for the DynamoDB column store
type Config struct {
	Table           string // Table name
	Region          string // AWS region (default: us-east-1)
	KeyAttribute    string // Primary key attribute (default: pk)
	AccessKeyID     string // Optional static credentials
	SecretAccessKey string
	Endpoint        string // Optional custom endpoint (DynamoDB Local, LocalStack)
}

// Store is a DynamoDB implementation of the timedcontent.ColumnStore interface.
// The record key is a string primary key and each column a binary attribute.
type Store struct {
	client  API
	table   string
	keyAttr string
}

// New creates a DynamoDB column store using the default credential chain
// unless static credentials are configured
func New(config Config) (*Store, error) {
	if config.Table == "" {
		return nil, errors.New("table name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var dynamoOptions []func(*dynamodb.Options)
	if config.Endpoint != "" {
		dynamoOptions = append(dynamoOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	return NewWithClient(dynamodb.NewFromConfig(awsCfg, dynamoOptions...), config), nil
}

// NewWithClient creates a store around an existing client
func NewWithClient(client API, config Config) *Store {
	keyAttr := config.KeyAttribute
	if keyAttr == "" {
		keyAttr = DefaultKeyAttribute
	}
	return &Store{client: client, table: config.Table, keyAttr: keyAttr}
}

func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.keyAttr: &types.AttributeValueMemberS{Value: key},
	}
}

// Put merges columns into the item at key with an UpdateItem SET expression,
// leaving other attributes untouched
func (s *Store) Put(ctx context.Context, key string, columns []timedcontent.Column) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(key),
	}

	// DynamoDB rejects an update that sets the same attribute twice, so the
	// last value written for a name wins.
	unique := make([]timedcontent.Column, 0, len(columns))
	position := make(map[string]int, len(columns))
	for _, column := range columns {
		if column.Name == s.keyAttr {
			return timedcontent.NewStorageError(backendName, "put", key, fmt.Errorf("column %q collides with the key attribute", column.Name))
		}
		if i, ok := position[column.Name]; ok {
			unique[i] = column
			continue
		}
		position[column.Name] = len(unique)
		unique = append(unique, column)
	}

	if len(unique) > 0 {
		names := make(map[string]string, len(unique))
		values := make(map[string]types.AttributeValue, len(unique))
		assignments := make([]string, 0, len(unique))
		for i, column := range unique {
			name := fmt.Sprintf("#c%d", i)
			value := fmt.Sprintf(":v%d", i)
			names[name] = column.Name
			values[value] = &types.AttributeValueMemberB{Value: column.Value}
			assignments = append(assignments, name+" = "+value)
		}
		input.UpdateExpression = aws.String("SET " + strings.Join(assignments, ", "))
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return timedcontent.NewStorageError(backendName, "put", key, err)
	}
	return nil
}

// Get returns the requested binary attributes that exist for key
func (s *Store) Get(ctx context.Context, key string, names []string) ([]timedcontent.Column, error) {
	columns := []timedcontent.Column{}
	if len(names) == 0 {
		return columns, nil
	}

	projection := make([]string, 0, len(names))
	attrNames := make(map[string]string, len(names))
	for i, name := range names {
		placeholder := fmt.Sprintf("#c%d", i)
		attrNames[placeholder] = name
		projection = append(projection, placeholder)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(key),
		ProjectionExpression:     aws.String(strings.Join(projection, ", ")),
		ExpressionAttributeNames: attrNames,
	})
	if err != nil {
		return nil, timedcontent.NewStorageError(backendName, "get", key, err)
	}

	for _, name := range names {
		attr, ok := result.Item[name]
		if !ok {
			continue
		}
		// Only binary attributes are columns
		if b, ok := attr.(*types.AttributeValueMemberB); ok {
			columns = append(columns, timedcontent.NewColumn(name, b.Value))
		}
	}
	return columns, nil
}

var _ timedcontent.ColumnStore = (*Store)(nil)
