package engine

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/oops"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/agentia/internal/models"
)

//go:embed prompts/decide.txt
var decidePrompt string

//go:embed prompts/resolve.txt
var resolvePrompt string

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	decisionSchema   = mustSchema("decision.schema.json")
	resolutionSchema = mustSchema("resolution.schema.json")
)

var templateFuncs = template.FuncMap{"join": strings.Join}

var (
	decideTmpl  = template.Must(template.New("decide").Funcs(templateFuncs).Parse(decidePrompt))
	resolveTmpl = template.Must(template.New("resolve").Funcs(templateFuncs).Parse(resolvePrompt))
)

func mustSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(name, string(data))
}

// generator produces raw model text for a prompt.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate. Gemini may split
// one answer across several parts.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no content returned from Gemini", models.ErrMalformedResponse)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text in Gemini response", models.ErrMalformedResponse)
	}
	return b.String(), nil
}

// Engine is the Gemini-backed decision maker and physics resolver.
type Engine struct {
	client      *genai.Client
	gen         generator
	logger      *slog.Logger
	tickMinutes int
	calls       atomic.Int64
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithTickMinutes tells the model how much time one action covers.
func WithTickMinutes(n int) Option { return func(e *Engine) { e.tickMinutes = n } }

func NewEngine(ctx context.Context, apiKey, model string, opts ...Option) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, oops.Wrapf(err, "create gemini client")
	}
	e := newEngine(geminiGenerator{model: client.GenerativeModel(model)}, opts...)
	e.client = client
	return e, nil
}

func newEngine(gen generator, opts ...Option) *Engine {
	e := &Engine{gen: gen, logger: slog.Default(), tickMinutes: 10}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Calls is the number of model requests made so far.
func (e *Engine) Calls() int64 { return e.calls.Load() }

// Decide asks the model for one action for the observed agent.
func (e *Engine) Decide(ctx context.Context, obs models.Observation) (models.Action, error) {
	prompt, err := render(decideTmpl, struct {
		Obs         models.Observation
		Agent       models.AgentProfile
		TickMinutes int
	}{obs, obs.Agent, e.tickMinutes})
	if err != nil {
		return models.Action{}, err
	}

	text, err := e.generate(ctx, prompt)
	if err != nil {
		return models.Action{}, err
	}

	var out struct {
		Reasoning string        `json:"reasoning"`
		Action    models.Action `json:"action"`
	}
	if err := parseStructured(text, decisionSchema, &out); err != nil {
		e.logger.Warn("unusable decision", "agent", obs.Agent.ID, "tick", obs.Tick, "err", err, "output", clip(text))
		return models.Action{}, err
	}
	a := out.Action
	if a.Reasoning == "" {
		a.Reasoning = out.Reasoning
	}
	return a, nil
}

// Resolve asks the model what an interaction does to the world.
func (e *Engine) Resolve(ctx context.Context, in models.Interaction) (models.Resolution, error) {
	prompt, err := render(resolveTmpl, struct {
		In          models.Interaction
		TickMinutes int
	}{in, e.tickMinutes})
	if err != nil {
		return models.Resolution{}, err
	}

	text, err := e.generate(ctx, prompt)
	if err != nil {
		return models.Resolution{}, err
	}

	var res models.Resolution
	if err := parseStructured(text, resolutionSchema, &res); err != nil {
		e.logger.Warn("unusable resolution", "agent", in.Actor.ID, "target", in.Target.ID, "err", err, "output", clip(text))
		return models.Resolution{}, err
	}
	return res, nil
}

func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	e.calls.Add(1)
	e.logger.Debug("model request", "prompt_bytes", len(prompt))
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", oops.Wrapf(err, "generate")
	}
	return text, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", oops.Wrapf(err, "render %s prompt", t.Name())
	}
	return buf.String(), nil
}

// parseStructured decodes fenced YAML (or JSON, which is YAML) model output,
// validates it against schema and decodes it into out. Every failure wraps
// models.ErrMalformedResponse.
func parseStructured(text string, schema *jsonschema.Schema, out any) error {
	clean := trimFences(text)

	var doc any
	if err := yaml.Unmarshal([]byte(clean), &doc); err != nil {
		return fmt.Errorf("%w: parse: %v", models.ErrMalformedResponse, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: convert: %v", models.ErrMalformedResponse, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("%w: convert: %v", models.ErrMalformedResponse, err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode: %v", models.ErrMalformedResponse, err)
	}
	return nil
}

func trimFences(text string) string {
	clean := strings.TrimSpace(text)
	for _, fence := range []string{"```yaml", "```yml", "```json", "```"} {
		if strings.HasPrefix(clean, fence) {
			clean = strings.TrimPrefix(clean, fence)
			break
		}
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

func clip(s string) string {
	const limit = 500
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
