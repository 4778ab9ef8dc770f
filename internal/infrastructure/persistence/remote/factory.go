package remote

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
)

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.Remote, logger *zap.Logger) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderSupabase:
		logger.Info("Using hosted Postgres remote", zap.String("url", cfg.Supabase.URL))
		return NewSupabaseBackend(cfg.Supabase.URL, cfg.Supabase.APIKey)

	case config.ProviderDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		logger.Info("Using DynamoDB remote",
			zap.String("table", cfg.DynamoDB.TableName),
			zap.String("region", cfg.DynamoDB.Region),
		)
		return NewDynamoDBBackend(client, cfg.DynamoDB.TableName, cfg.DynamoDB.IndexName), nil

	case config.ProviderMemory:
		logger.Warn("Using in-memory remote, data is lost on exit")
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown remote provider %q", cfg.Provider)
}
