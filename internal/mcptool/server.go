// Package mcptool exposes a tool registry over the Model Context Protocol on stdio and
// consumes remote tool servers as ordinary registry tools.
package mcptool

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Registry is what the server needs from a tool registry. *tools.Registry implements it.
type Registry interface {
	Specs() []tools.ToolSpec
	Resolve(name string) (tools.Tool, error)
}

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// NewServer returns an MCP server advertising every tool in reg. Tool failures are
// returned as isError results carrying the message text.
func NewServer(name, version string, reg Registry) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	for _, spec := range reg.Specs() {
		schema := emptyObjectSchema
		if spec.Parameters != nil {
			b, err := json.Marshal(spec.Parameters)
			if err != nil {
				return nil, errors.Wrapf(err, "encode schema of %s", spec.Name)
			}
			schema = b
		}
		tool, err := reg.Resolve(spec.Name)
		if err != nil {
			return nil, err
		}
		s.AddTool(mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema), handler(tool))
	}
	return s, nil
}

func handler(tool tools.Tool) server.ToolHandlerFunc {
	name := tool.Spec().Name
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, err := tool.Execute(ctx, args)
		if err != nil {
			log.Debug().Err(err).Str("tool", name).Msg("mcptool: tool failed")
			var te tools.ToolError
			if errors.As(err, &te) {
				return mcp.NewToolResultError(te.Message), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// ServeStdio serves s on stdin/stdout until stdin closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
