// Package llm builds the Gemini chat models behind the reasoning steps and
// adapts them to the workflow engine.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// L1ModelConfig configures the first-line support model.
type L1ModelConfig struct {
	Model       string  `envconfig:"L1_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"L1_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"L1_TEMPERATURE" default:"0.3"`
}

// L2ModelConfig configures the senior support model that carries the tools.
type L2ModelConfig struct {
	Model       string  `envconfig:"L2_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"L2_MAX_TOKENS" default:"3000"`
	Temperature float32 `envconfig:"L2_TEMPERATURE" default:"0.2"`
}

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	L1      *L1ModelConfig
	L2      *L2ModelConfig
}

// ChatModels holds the L1 and L2 chat models.
type ChatModels struct {
	L1          *gemini.ChatModel
	L2          *gemini.ChatModel
	L1ModelName string
	L2ModelName string
}

// NewChatModels creates the L1 and L2 chat models over one shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModelL1, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.L1.Model,
		Temperature: &config.L1.Temperature,
		MaxTokens:   &config.L1.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating L1 model")
		return nil, fmt.Errorf("error creating L1 model: %w", err)
	}

	chatModelL2, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.L2.Model,
		Temperature: &config.L2.Temperature,
		MaxTokens:   &config.L2.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating L2 model")
		return nil, fmt.Errorf("error creating L2 model: %w", err)
	}

	return &ChatModels{
		L1:          chatModelL1,
		L2:          chatModelL2,
		L1ModelName: config.L1.Model,
		L2ModelName: config.L2.Model,
	}, nil
}

// BindToolsToL2Model binds the support tools to the L2 chat model.
func (cm *ChatModels) BindToolsToL2Model(tools []*schema.ToolInfo) error {
	if err := cm.L2.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to L2 model")
	return nil
}
