package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrockAPI struct {
	startInput *bedrockagent.StartIngestionJobInput
	getInput   *bedrockagent.GetIngestionJobInput
	startOut   *bedrockagent.StartIngestionJobOutput
	getOut     *bedrockagent.GetIngestionJobOutput
	err        error
}

func (f *fakeBedrockAPI) StartIngestionJob(_ context.Context, params *bedrockagent.StartIngestionJobInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error) {
	f.startInput = params
	if f.err != nil {
		return nil, f.err
	}
	return f.startOut, nil
}

func (f *fakeBedrockAPI) GetIngestionJob(_ context.Context, params *bedrockagent.GetIngestionJobInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.GetIngestionJobOutput, error) {
	f.getInput = params
	if f.err != nil {
		return nil, f.err
	}
	return f.getOut, nil
}

func TestBedrockClientTrigger(t *testing.T) {
	api := &fakeBedrockAPI{
		startOut: &bedrockagent.StartIngestionJobOutput{
			IngestionJob: &types.IngestionJob{IngestionJobId: aws.String("job-123")},
		},
	}
	client := &BedrockClient{api: api}

	jobID, err := client.Trigger(context.Background(), "kb1", "ds1")
	require.NoError(t, err)
	assert.Equal(t, "job-123", jobID)
	assert.Equal(t, "kb1", aws.ToString(api.startInput.KnowledgeBaseId))
	assert.Equal(t, "ds1", aws.ToString(api.startInput.DataSourceId))
}

func TestBedrockClientTriggerMissingJobID(t *testing.T) {
	client := &BedrockClient{api: &fakeBedrockAPI{startOut: &bedrockagent.StartIngestionJobOutput{}}}

	_, err := client.Trigger(context.Background(), "kb1", "ds1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestBedrockClientTriggerError(t *testing.T) {
	cause := errors.New("AccessDeniedException")
	client := &BedrockClient{api: &fakeBedrockAPI{err: cause}}

	_, err := client.Trigger(context.Background(), "kb1", "ds1")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestBedrockClientGetStatus(t *testing.T) {
	api := &fakeBedrockAPI{
		getOut: &bedrockagent.GetIngestionJobOutput{
			IngestionJob: &types.IngestionJob{Status: types.IngestionJobStatusInProgress},
		},
	}
	client := &BedrockClient{api: api}

	status, err := client.GetStatus(context.Background(), "kb1", "ds1", "job-123")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", status)
	assert.Equal(t, "job-123", aws.ToString(api.getInput.IngestionJobId))
}

func TestBedrockClientGetStatusMissing(t *testing.T) {
	client := &BedrockClient{api: &fakeBedrockAPI{getOut: &bedrockagent.GetIngestionJobOutput{}}}

	_, err := client.GetStatus(context.Background(), "kb1", "ds1", "job-123")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}
