package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// ErrStackNotFound is returned when DescribeStacks returns no stack.
var ErrStackNotFound = errors.New("stack not found")

// DescriptorSource discovers raw descriptors.
type DescriptorSource interface {
	// Descriptors returns the descriptors in a stable order.
	Descriptors(ctx context.Context) ([]Descriptor, error)
}

// cloudFormationAPI is the subset of the CloudFormation API used for discovery.
type cloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// StackOutputSource reads descriptors from the outputs of a CloudFormation stack.
type StackOutputSource struct {
	api       cloudFormationAPI
	stackName string
}

// NewStackOutputSource creates a source for the named stack.
// Parameters:
//   - cfg: AWS configuration.
//   - stackName: stack name or ID.
//
// Returns:
//   - *StackOutputSource: source bound to the stack.
func NewStackOutputSource(cfg aws.Config, stackName string) *StackOutputSource {
	return &StackOutputSource{
		api:       cloudformation.NewFromConfig(cfg),
		stackName: stackName,
	}
}

// Descriptors reads the stack outputs and decodes the agent descriptors among them.
func (s *StackOutputSource) Descriptors(ctx context.Context) ([]Descriptor, error) {
	out, err := s.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(s.stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe stack %s: %w", s.stackName, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStackNotFound, s.stackName)
	}

	outputs := out.Stacks[0].Outputs
	values := make([]string, 0, len(outputs))
	for _, o := range outputs {
		values = append(values, aws.ToString(o.OutputValue))
	}
	return ParseOutputs(values)
}

// FileSource reads descriptors from a JSON array on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Descriptors decodes the file.
func (s *FileSource) Descriptors(ctx context.Context) ([]Descriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	var descriptors []Descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDescriptor, s.path, err)
	}
	return descriptors, nil
}
