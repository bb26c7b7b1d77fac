package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ToolSpec is what the planner sees of a tool.
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Tool is a named capability with a structured argument map.
type Tool interface {
	Spec() ToolSpec
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// GenerateSchema derives the argument schema from a Go struct.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	s := reflector.Reflect(v)
	// Providers and validators only need the object schema itself.
	s.Version = ""
	s.ID = ""
	return s
}

// ExecFunc is an untyped tool implementation.
type ExecFunc func(ctx context.Context, args map[string]any) (string, error)

type boundTool struct {
	spec ToolSpec
	fn   ExecFunc
}

// Bind pairs a spec with an untyped implementation. Arguments are passed
// through untouched.
func Bind(spec ToolSpec, fn ExecFunc) Tool {
	return &boundTool{spec: spec, fn: fn}
}

func (t *boundTool) Spec() ToolSpec { return t.spec }

func (t *boundTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}

// Handler is a typed tool implementation.
type Handler[T any] func(ctx context.Context, in T) (string, error)

// Func is a Tool whose arguments decode into T.
type Func[T any] struct {
	spec      ToolSpec
	handler   Handler[T]
	validator *gojsonschema.Schema
}

var _ Tool = (*Func[struct{}])(nil)

// NewFunc reflects the schema of T and compiles a validator for it.
func NewFunc[T any](name, description string, h Handler[T]) (*Func[T], error) {
	if name == "" {
		return nil, errors.New("tool name cannot be empty")
	}
	if h == nil {
		return nil, errors.Errorf("tool %s: nil handler", name)
	}
	schema := GenerateSchema[T]()
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "tool %s: marshal schema", name)
	}
	validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "tool %s: compile schema", name)
	}
	return &Func[T]{
		spec:      ToolSpec{Name: name, Description: description, Parameters: schema},
		handler:   h,
		validator: validator,
	}, nil
}

// MustFunc is NewFunc for package-level definitions.
func MustFunc[T any](name, description string, h Handler[T]) *Func[T] {
	f, err := NewFunc(name, description, h)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Func[T]) Spec() ToolSpec { return f.spec }

// Execute validates args against the schema, decodes them into T and runs the handler.
func (f *Func[T]) Execute(ctx context.Context, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := f.validator.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return "", ToolError{Code: CodeInvalidArgs, Message: err.Error()}
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return "", ToolError{Code: CodeInvalidArgs, Message: strings.Join(msgs, "; ")}
	}

	b, err := json.Marshal(args)
	if err != nil {
		return "", ToolError{Code: CodeInvalidArgs, Message: err.Error()}
	}
	var in T
	if err := json.Unmarshal(b, &in); err != nil {
		return "", ToolError{Code: CodeInvalidArgs, Message: err.Error()}
	}
	return f.handler(ctx, in)
}
