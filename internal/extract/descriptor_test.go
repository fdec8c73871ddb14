package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/kbsync/internal/domain"
)

var stackOutputs = []string{
	`{"agentName":"python-coder-agent","agentId":"AG1","agentAliasId":"AL1"}`,
	`{"agentName":"human-resource-agent","agentId":"AG2","agentAliasId":"AL2","knowledgeBaseId":"KB2","DataSourceId":["DS21","DS22"]}`,
	`agents-preparation-toolkit`,
	`{"agentName":"product-support-agent","agentId":"AG3","agentAliasId":"AL3","knowledgeBaseId":"KB3","DataSourceId":["DS31"]}`,
	`{"bucket":"artifacts"}`,
	`{"note":"lookup by agentId"}`,
}

func TestParseOutputs(t *testing.T) {
	descriptors, err := ParseOutputs(stackOutputs)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	assert.Equal(t, "AG1", descriptors[0].AgentID)
	assert.False(t, descriptors[0].HasKnowledgeBase())
	assert.Equal(t, "KB2", descriptors[1].KnowledgeBaseID)
	assert.Equal(t, []string{"DS21", "DS22"}, descriptors[1].DataSourceIDs)
}

func TestParseOutputsRejectsBadDescriptor(t *testing.T) {
	_, err := ParseOutputs([]string{`{"agentId":"AG1","DataSourceId":"not-a-list"}`})
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
}

func TestParseOutputsRejectsTruncatedDescriptor(t *testing.T) {
	_, err := ParseOutputs([]string{
		stackOutputs[0],
		`{"agentName":"human-resource-agent","agentId":"AG2","knowledgeBaseId":"KB`,
	})
	require.ErrorIs(t, err, ErrMalformedDescriptor)
	assert.Contains(t, err.Error(), "output 1")
}

func TestParseOutputsSkipsValuesWithoutAgentIDKey(t *testing.T) {
	descriptors, err := ParseOutputs([]string{
		`agents-preparation-toolkit`,
		`{"note":"lookup by agentId"}`,
		`{"bucket":"artifacts"}`,
	})
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestSpecs(t *testing.T) {
	descriptors, err := ParseOutputs(stackOutputs)
	require.NoError(t, err)

	specs, err := Specs(descriptors)
	require.NoError(t, err)
	assert.Equal(t, []domain.JobSpec{
		{GroupID: "KB2", SubSourceIDs: []string{"DS21", "DS22"}},
		{GroupID: "KB3", SubSourceIDs: []string{"DS31"}},
	}, specs)
}

func TestSpecsKeepsEmptyDataSourceList(t *testing.T) {
	specs, err := Specs([]Descriptor{{AgentID: "AG1", KnowledgeBaseID: "KB1"}})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Error(t, specs[0].Validate())
}

func TestSpecsRejectsDataSourcesWithoutKnowledgeBase(t *testing.T) {
	_, err := Specs([]Descriptor{{AgentID: "AG1", DataSourceIDs: []string{"DS1"}}})
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
}

func TestAgentRefs(t *testing.T) {
	descriptors, err := ParseOutputs(stackOutputs)
	require.NoError(t, err)

	assert.Equal(t, []AgentRef{
		{AgentID: "AG1", AgentAliasID: "AL1"},
		{AgentID: "AG2", AgentAliasID: "AL2"},
		{AgentID: "AG3", AgentAliasID: "AL3"},
	}, AgentRefs(descriptors))
}

type fakeCloudFormation struct {
	out *cloudformation.DescribeStacksOutput
	err error
	in  *cloudformation.DescribeStacksInput
}

func (f *fakeCloudFormation) DescribeStacks(_ context.Context, params *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.in = params
	return f.out, f.err
}

func TestStackOutputSource(t *testing.T) {
	outputs := make([]types.Output, len(stackOutputs))
	for i, v := range stackOutputs {
		outputs[i] = types.Output{OutputValue: aws.String(v)}
	}
	api := &fakeCloudFormation{out: &cloudformation.DescribeStacksOutput{
		Stacks: []types.Stack{{Outputs: outputs}},
	}}
	src := &StackOutputSource{api: api, stackName: "AgentsPreparationToolkitStack"}

	descriptors, err := src.Descriptors(context.Background())
	require.NoError(t, err)
	assert.Len(t, descriptors, 3)
	assert.Equal(t, "AgentsPreparationToolkitStack", aws.ToString(api.in.StackName))
}

func TestStackOutputSourceErrors(t *testing.T) {
	src := &StackOutputSource{api: &fakeCloudFormation{out: &cloudformation.DescribeStacksOutput{}}, stackName: "missing"}
	_, err := src.Descriptors(context.Background())
	assert.ErrorIs(t, err, ErrStackNotFound)

	cause := errors.New("ValidationError: Stack with id missing does not exist")
	src = &StackOutputSource{api: &fakeCloudFormation{err: cause}, stackName: "missing"}
	_, err = src.Descriptors(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptors.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"agentId":"AG2","agentAliasId":"AL2","knowledgeBaseId":"KB2","DataSourceId":["DS21"]}
	]`), 0o644))

	descriptors, err := NewFileSource(path).Descriptors(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "KB2", descriptors[0].KnowledgeBaseID)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	_, err = NewFileSource(path).Descriptors(context.Background())
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
}
