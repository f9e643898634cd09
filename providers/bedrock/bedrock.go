// Package bedrock routes chat completions through the AWS Bedrock Runtime
// Converse API using the default AWS credential chain.
package bedrock

import (
	"context"
	"fmt"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Name is the slug of the Bedrock provider.
const Name = "bedrock"

func init() {
	litellm.Register(Name, func() (litellm.Provider, error) {
		return New(), nil
	})
}

// converseClient is the subset of the Bedrock Runtime client used here.
type converseClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

type options struct {
	region string
	client converseClient
}

// Option configures the Bedrock provider.
type Option = func(*options)

// WithRegion overrides the region from the AWS configuration.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithClient swaps the Bedrock Runtime client, mostly for tests.
func WithClient(client converseClient) Option {
	return func(o *options) {
		o.client = client
	}
}

type provider struct {
	options options
}

// New creates a Bedrock provider. Credentials come from the default AWS
// credential chain when no client override is given.
func New(opts ...Option) litellm.Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &provider{options: o}
}

// Name implements litellm.Provider.
func (*provider) Name() string {
	return Name
}

// LanguageModel implements litellm.Provider. The model ID gets the inference
// profile region prefix (us., eu., ap.) derived from the resolved AWS region.
func (p *provider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	client := p.options.client
	region := p.options.region

	if client == nil {
		cfg, err := loadAWSConfig(context.Background(), p.options.region)
		if err != nil {
			return nil, fmt.Errorf("bedrock: failed to load AWS configuration: %w", err)
		}
		client = bedrockruntime.NewFromConfig(cfg)
		region = cfg.Region
	}

	return &languageModel{
		modelID:  applyRegionPrefix(modelID, region),
		provider: Name,
		client:   client,
	}, nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.Region == "" {
		cfg.Region = getRegionFromEnv()
	}
	return cfg, nil
}
