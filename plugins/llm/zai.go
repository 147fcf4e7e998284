package llm

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go/option"
)

const zaiProvider = "zai"

const defaultZaiBaseURL = "https://api.z.ai/api/paas/v4/"

var zaiModels = []string{"glm-4.7", "glm-4.7-flash", "glm-4.6", "glm-4.5"}

// Zai serves Z.ai GLM models through their OpenAI compatible API.
type Zai struct {
	APIKey  string
	BaseURL string

	compat *compat_oai.OpenAICompatible
}

var errZaiKey = errors.New("zai: api key is required")

// Name implements genkit.Plugin.
func (z *Zai) Name() string {
	return zaiProvider
}

// Init implements genkit.Plugin. It panics without an API key, which Setup
// checks beforehand.
func (z *Zai) Init(ctx context.Context) []api.Action {
	if z.APIKey == "" {
		panic(errZaiKey)
	}
	baseURL := z.BaseURL
	if baseURL == "" {
		baseURL = defaultZaiBaseURL
	}

	z.compat = &compat_oai.OpenAICompatible{
		Provider: zaiProvider,
		Opts: []option.RequestOption{
			option.WithAPIKey(z.APIKey),
			option.WithBaseURL(baseURL),
		},
	}
	actions := z.compat.Init(ctx)
	for _, id := range zaiModels {
		actions = append(actions, z.compat.DefineModel(zaiProvider, id, ai.ModelOptions{
			Label:    "Z.ai " + id,
			Supports: &compat_oai.Multimodal,
			Versions: []string{id},
		}).(api.Action))
	}
	return actions
}

// Model returns a model by name, defining it when it is not one of the
// built-in GLM models.
func (z *Zai) Model(g *genkit.Genkit, name string) ai.Model {
	if m := z.compat.Model(g, api.NewName(zaiProvider, name)); m != nil {
		return m
	}
	return z.compat.DefineModel(zaiProvider, name, ai.ModelOptions{
		Label:    "Z.ai " + name,
		Supports: &compat_oai.Multimodal,
	})
}

// ListActions implements genkit.DynamicPlugin.
func (z *Zai) ListActions(ctx context.Context) []api.ActionDesc {
	return z.compat.ListActions(ctx)
}

// ResolveAction implements genkit.DynamicPlugin.
func (z *Zai) ResolveAction(atype api.ActionType, name string) api.Action {
	return z.compat.ResolveAction(atype, name)
}
