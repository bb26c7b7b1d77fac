package mcptool

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	clientName    = "tool-agent"
	clientVersion = "0.1.0"
)

// Client is an initialised session with a remote tool server.
type Client struct {
	c         *client.Client
	closeOnce sync.Once
}

// Dial spawns command as a stdio tool server and initialises the session.
func Dial(ctx context.Context, command string, args []string, env []string) (*Client, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "start tool server %s", command)
	}
	cl, err := NewClient(ctx, c)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return cl, nil
}

// NewClient initialises a session over an already started mcp-go client.
func NewClient(ctx context.Context, c *client.Client) (*Client, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	res, err := c.Initialize(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "initialize tool server session")
	}
	log.Debug().Str("server", res.ServerInfo.Name).Str("version", res.ServerInfo.Version).Msg("mcptool: session initialised")
	return &Client{c: c}, nil
}

// ListTools returns the remote tool specs.
func (c *Client) ListTools(ctx context.Context) ([]tools.ToolSpec, error) {
	res, err := c.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "list remote tools")
	}
	specs := make([]tools.ToolSpec, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := toSchema(t.InputSchema)
		if err != nil {
			return nil, errors.Wrapf(err, "schema of remote tool %s", t.Name)
		}
		specs = append(specs, tools.ToolSpec{Name: t.Name, Description: t.Description, Parameters: schema})
	}
	return specs, nil
}

func toSchema(in mcp.ToolInputSchema) (*jsonschema.Schema, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CallTool invokes a remote tool. An isError result becomes a ToolError with CodeRemote.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.c.CallTool(ctx, req)
	if err != nil {
		return "", errors.Wrapf(err, "call remote tool %s", name)
	}
	text := contentText(res.Content)
	if res.IsError {
		return "", tools.ToolError{Code: tools.CodeRemote, Message: text}
	}
	return text, nil
}

func contentText(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, item := range content {
		switch v := item.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Close ends the session and, for Dial, stops the server process.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.c.Close() })
	return err
}

// RegisterRemote registers one proxy tool per remote spec in reg and returns their names.
// A name already present locally fails with *tools.DuplicateToolError.
func RegisterRemote(ctx context.Context, reg *tools.Registry, c *Client) ([]string, error) {
	specs, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		name := spec.Name
		proxy := tools.Bind(spec, func(ctx context.Context, args map[string]any) (string, error) {
			return c.CallTool(ctx, name, args)
		})
		if err := reg.Register(proxy); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
