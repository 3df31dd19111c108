package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexgladd/llmsvc/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// inferencePrefix selects Bedrock's cross-region inference profile for a
// model instead of a single-region deployment.
const inferencePrefix = "us."

// Provider implements models.CompletionProvider using Amazon Bedrock.
type Provider struct {
	control *bedrock.Client
	runtime *bedrockruntime.Client
}

// NewProvider creates a Bedrock provider using the default AWS credential
// chain.
func NewProvider(ctx context.Context, region string) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Provider{
		control: bedrock.NewFromConfig(cfg),
		runtime: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (p *Provider) Name() string { return "bedrock" }

func (p *Provider) GetModel(ctx context.Context, providerModelID string) (*models.Model, error) {
	out, err := p.control.GetFoundationModel(ctx, &bedrock.GetFoundationModelInput{
		ModelIdentifier: aws.String(providerModelID),
	})
	if err != nil {
		return nil, fmt.Errorf("get foundation model: %w", err)
	}
	details := out.ModelDetails
	if details == nil {
		return nil, fmt.Errorf("get foundation model %s: empty model details", providerModelID)
	}

	m := &models.Model{
		ID:       providerModelID,
		Name:     aws.ToString(details.ModelName),
		Provider: aws.ToString(details.ProviderName),
	}
	for _, mod := range details.InputModalities {
		m.InputModalities = append(m.InputModalities, string(mod))
	}
	for _, mod := range details.OutputModalities {
		m.OutputModalities = append(m.OutputModalities, string(mod))
	}
	return m, nil
}

// llamaRequest is the Bedrock invocation body for llama-family models.
type llamaRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxGenLen   int     `json:"max_gen_len"`
}

type llamaResponse struct {
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	StopReason           string `json:"stop_reason"`
}

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (*models.Completion, error) {
	prompt := BuildLlamaPrompt(req.System, []models.PromptMessage{
		{Role: "user", Message: req.Prompt},
	})
	return p.invoke(ctx, req.ModelID, llamaRequest{
		Prompt:      prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxGenLen:   req.MaxGenLen,
	})
}

func (p *Provider) Chat(ctx context.Context, req models.ChatRequest) (*models.Completion, error) {
	prompt := BuildLlamaPrompt(req.System, req.Messages)
	return p.invoke(ctx, req.ModelID, llamaRequest{
		Prompt:      prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxGenLen:   req.MaxGenLen,
	})
}

func (p *Provider) invoke(ctx context.Context, providerModelID string, body llamaRequest) (*models.Completion, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal invocation body: %w", err)
	}

	out, err := p.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(inferencePrefix + providerModelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var resp llamaResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode invocation response: %w", err)
	}

	return &models.Completion{
		Generation:   resp.Generation,
		StopReason:   resp.StopReason,
		InputTokens:  resp.PromptTokenCount,
		OutputTokens: resp.GenerationTokenCount,
	}, nil
}

var _ models.CompletionProvider = (*Provider)(nil)
