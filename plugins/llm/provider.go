package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/va6996/tripchat/config"
	"github.com/va6996/tripchat/log"
)

// Init starts genkit with the configured provider and returns its chat
// model.
func Init(ctx context.Context, cfg config.AIConfig) (*genkit.Genkit, ai.Model, error) {
	switch cfg.Plugin {
	case "ollama":
		log.Infof(ctx, "Using Ollama plugin (model: %s)", cfg.Ollama.Model)
		plugin := &ollama.Ollama{ServerAddress: cfg.Ollama.BaseURL}
		gk := genkit.Init(ctx, genkit.WithPlugins(plugin))
		model := plugin.DefineModel(gk, ollama.ModelDefinition{
			Name: cfg.Ollama.Model,
			Type: "chat",
		}, &ai.ModelOptions{
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				SystemRole: true,
				Tools:      true,
			},
		})
		return gk, model, nil

	case "zai":
		if cfg.Zai.APIKey == "" {
			return nil, nil, fmt.Errorf("ZAI_API_KEY must be set for AI_PLUGIN=zai")
		}
		log.Infof(ctx, "Using Z.ai plugin (model: %s)", cfg.Zai.Model)
		plugin := &Zai{APIKey: cfg.Zai.APIKey, BaseURL: cfg.Zai.BaseURL}
		gk := genkit.Init(ctx, genkit.WithPlugins(plugin))
		return gk, plugin.Model(gk, cfg.Zai.Model), nil

	case "gemini", "":
		if cfg.Gemini.APIKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY must be set (or set AI_PLUGIN=ollama)")
		}
		log.Infof(ctx, "Using Gemini plugin (model: %s)", cfg.Gemini.Model)
		gk := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.Gemini.APIKey}))
		return gk, googlegenai.GoogleAIModel(gk, cfg.Gemini.Model), nil
	}
	return nil, nil, fmt.Errorf("unknown AI plugin %q", cfg.Plugin)
}
