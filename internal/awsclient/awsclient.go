// Package awsclient loads the AWS configuration shared by the Bedrock and
// CloudFormation clients.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/timmy/kbsync/internal/config"
)

// LoadConfig resolves region and credentials.
// Static keys win over a named profile; with neither set the default chain
// (environment, shared config, instance role) applies.
// Parameters:
//   - ctx: context for credential resolution.
//   - cfg: AWS settings.
//
// Returns:
//   - aws.Config: loaded configuration.
//   - error: non-nil if the SDK cannot load the configuration.
func LoadConfig(ctx context.Context, cfg *config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions(cfg)...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func loadOptions(cfg *config.AWSConfig) []func(*awsconfig.LoadOptions) error {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg == nil {
		return opts
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	switch {
	case cfg.AccessKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case cfg.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	return opts
}
