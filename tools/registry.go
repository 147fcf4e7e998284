package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/va6996/tripchat/core"
)

// ToolExecutor is the function signature for executing a tool
type ToolExecutor func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Definition describes a tool to a model that does not go through genkit.
type Definition struct {
	Name        string
	Description string
	Mutating    bool
}

type entry struct {
	def      Definition
	tool     ai.Tool
	executor ToolExecutor
}

// Option adjusts a registration.
type Option func(*Definition)

// Mutating marks a tool that writes persistent state. Such tools finish even
// when the client goes away mid-turn.
func Mutating() Option {
	return func(d *Definition) { d.Mutating = true }
}

// Registry manages the registration of AI tools
type Registry struct {
	gk      *genkit.Genkit
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewRegistry creates a new tool registry. With a nil gk tools are only
// executable locally and carry no genkit schema.
func NewRegistry(gk *genkit.Genkit) *Registry {
	return &Registry{
		gk:      gk,
		entries: make(map[string]*entry),
	}
}

// Genkit returns the instance tools are defined on, if any.
func (r *Registry) Genkit() *genkit.Genkit {
	return r.gk
}

// Register adds a tool to the registry with its executor
func (r *Registry) Register(tool ai.Tool, executor ToolExecutor, opts ...Option) {
	def := Definition{Name: tool.Name(), Description: tool.Definition().Description}
	r.add(def, tool, executor, opts)
}

func (r *Registry) add(def Definition, tool ai.Tool, executor ToolExecutor, opts []Option) {
	for _, opt := range opts {
		opt(&def)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.entries[def.Name] = &entry{def: def, tool: tool, executor: executor}
}

// Define registers a typed tool. Arguments arrive as loosely typed JSON from
// the model, so they are decoded with weak typing and validated before fn
// runs.
func Define[In, Out any](r *Registry, name, description string, fn func(ctx context.Context, in In) (Out, error), opts ...Option) {
	var tool ai.Tool
	if r.gk != nil {
		tool = genkit.DefineTool[In, Out](r.gk, name, description,
			func(ctx *ai.ToolContext, in In) (Out, error) {
				if err := validate(in); err != nil {
					var zero Out
					return zero, err
				}
				return fn(ctx, in)
			})
	}

	executor := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		in, err := decodeArgs[In](args)
		if err != nil {
			return nil, err
		}
		if err := validate(in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}

	r.add(Definition{Name: name, Description: description}, tool, executor, opts)
}

func decodeArgs[In any](args map[string]interface{}) (In, error) {
	var in In
	if args == nil {
		args = map[string]interface{}{}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &in,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return in, err
	}
	if err := decoder.Decode(args); err != nil {
		return in, fmt.Errorf("%w: invalid arguments: %v", core.ErrValidation, err)
	}
	return in, nil
}

func validate(in interface{}) error {
	v, ok := in.(validation.Validatable)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	return nil
}

// GetTools returns all genkit-backed tools in registration order.
func (r *Registry) GetTools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		if t := r.entries[name].tool; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Definitions lists every tool in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// IsMutating reports whether name was registered with Mutating.
func (r *Registry) IsMutating(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.def.Mutating
}

// ExecuteTool runs a registered tool by name
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tool not found: %s", core.ErrValidation, name)
	}
	return e.executor(ctx, args)
}
