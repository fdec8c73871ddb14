package remote

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
)

// bedrockAPI is the subset of the Bedrock Agent API used for ingestion jobs.
type bedrockAPI interface {
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
	GetIngestionJob(ctx context.Context, params *bedrockagent.GetIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetIngestionJobOutput, error)
}

// BedrockClient implements Client on top of Bedrock knowledge base ingestion jobs.
// Group IDs are knowledge base IDs and sub-source IDs are data source IDs.
type BedrockClient struct {
	api bedrockAPI
}

// NewBedrockClient creates a client from a loaded AWS configuration.
// Parameters:
//   - cfg: AWS configuration (region and credentials).
//   - endpoint: optional endpoint override, empty for the regional default.
//
// Returns:
//   - *BedrockClient: client safe for concurrent use.
func NewBedrockClient(cfg aws.Config, endpoint string) *BedrockClient {
	api := bedrockagent.NewFromConfig(cfg, func(o *bedrockagent.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &BedrockClient{api: api}
}

// Trigger starts an ingestion job for a data source.
func (c *BedrockClient) Trigger(ctx context.Context, groupID, subSourceID string) (string, error) {
	out, err := c.api.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(groupID),
		DataSourceId:    aws.String(subSourceID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start ingestion job: %w", err)
	}
	if out.IngestionJob == nil || aws.ToString(out.IngestionJob.IngestionJobId) == "" {
		return "", fmt.Errorf("start ingestion job: %w: missing ingestion job id", ErrUnexpectedResponse)
	}
	return aws.ToString(out.IngestionJob.IngestionJobId), nil
}

// GetStatus returns the ingestion job status (STARTING, IN_PROGRESS, COMPLETE, FAILED, STOPPING, STOPPED).
func (c *BedrockClient) GetStatus(ctx context.Context, groupID, subSourceID, jobID string) (string, error) {
	out, err := c.api.GetIngestionJob(ctx, &bedrockagent.GetIngestionJobInput{
		KnowledgeBaseId: aws.String(groupID),
		DataSourceId:    aws.String(subSourceID),
		IngestionJobId:  aws.String(jobID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get ingestion job: %w", err)
	}
	if out.IngestionJob == nil || out.IngestionJob.Status == "" {
		return "", fmt.Errorf("get ingestion job: %w: missing status", ErrUnexpectedResponse)
	}
	return string(out.IngestionJob.Status), nil
}
