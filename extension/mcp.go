package extension

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// MCPExtension starts or reuses an MCP client session over stdio
// (mcp.command) or HTTP-SSE (mcp.url, optionally bearer-authenticated
// via mcp.bearer) and routes the request by mcp.target
// (spec.md §4.3's "mcp" entry). One client is started per invocation;
// spec.md's Non-goals exclude connection pooling for this extension,
// so there is no session cache here the way db.go caches *sql.DB.
type MCPExtension struct{}

func NewMCPExtension() *MCPExtension { return &MCPExtension{} }

const (
	optMCPCommand  = "mcp.command"
	optMCPURL      = "mcp.url"
	optMCPBearer   = "mcp.bearer"
	optMCPTarget   = "mcp.target"
	optMCPTool     = "mcp.tool"
	optMCPPrompt   = "mcp.prompt"
	optMCPResource = "mcp.resource"
)

// mcpTarget is spec.md §4.3's "target ∈ {info, capability, prompt,
// resource, resource_template, tool}".
type mcpTarget string

const (
	targetInfo             mcpTarget = "info"
	targetCapability       mcpTarget = "capability"
	targetPrompt           mcpTarget = "prompt"
	targetResource         mcpTarget = "resource"
	targetResourceTemplate mcpTarget = "resource_template"
	targetTool             mcpTarget = "tool"
)

func (*MCPExtension) Execute(ec *Context) (result.Result, error) {
	c, err := dialMCP(ec)
	if err != nil {
		return nil, err
	}
	ec.Tracker.Track(c)

	initResult, err := c.Initialize(ec.Ctx, mcp.InitializeRequest{})
	if err != nil {
		return nil, errs.ExecutionError("mcp", err)
	}

	target := mcpTarget(ec.Options[optMCPTarget])
	if target == "" {
		target = targetTool
	}

	var out any
	switch target {
	case targetInfo:
		out = initResult.ServerInfo
	case targetCapability:
		out = initResult.Capabilities
	case targetTool:
		out, err = mcpCallTool(ec, c)
	case targetPrompt:
		out, err = mcpGetPrompt(ec, c)
	case targetResource:
		out, err = mcpReadResource(ec, c)
	case targetResourceTemplate:
		out, err = c.ListResourceTemplates(ec.Ctx, mcp.ListResourceTemplatesRequest{})
	default:
		return nil, errs.ResolveError("mcp extension: unknown target %q", target)
	}
	if err != nil {
		return nil, errs.ExecutionError("mcp", err)
	}

	if target == targetTool {
		return result.NewScalarResult(result.StringValue(out.(string)), ec.Tracker, ec.Log), nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, errs.ExecutionError("mcp", err)
	}
	return result.NewScalarResult(result.JSONValue(b), ec.Tracker, ec.Log), nil
}

// dialMCP picks stdio or HTTP-SSE transport by which of mcp.command /
// mcp.url is set; mcp.command wins when both are present.
func dialMCP(ec *Context) (*client.Client, error) {
	if command := ec.Options[optMCPCommand]; command != "" {
		parts := strings.Fields(command)
		c, err := client.NewStdioMCPClient(parts[0], nil, parts[1:]...)
		if err != nil {
			return nil, errs.ExecutionError("mcp", err)
		}
		return c, nil
	}

	url := ec.Options[optMCPURL]
	if url == "" {
		return nil, errs.ResolveError("mcp extension requires %q or %q", optMCPCommand, optMCPURL)
	}
	var opts []transport.ClientOption
	if bearer := ec.Options[optMCPBearer]; bearer != "" {
		opts = append(opts, transport.WithHeaders(map[string]string{"Authorization": "Bearer " + bearer}))
	}
	c, err := client.NewSSEMCPClient(url, opts...)
	if err != nil {
		return nil, errs.ExecutionError("mcp", err)
	}
	return c, nil
}

func mcpCallTool(ec *Context, c *client.Client) (any, error) {
	name, args, err := resolveNameAndArgs(ec, optMCPTool)
	if err != nil {
		return nil, err
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.CallTool(ec.Ctx, req)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(mcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String(), nil
}

func mcpGetPrompt(ec *Context, c *client.Client) (any, error) {
	name, args, err := resolveNameAndArgs(ec, optMCPPrompt)
	if err != nil {
		return nil, err
	}
	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = toStringArgs(args)
	return c.GetPrompt(ec.Ctx, req)
}

func mcpReadResource(ec *Context, c *client.Client) (any, error) {
	name, _, err := resolveNameAndArgs(ec, optMCPResource)
	if err != nil {
		return nil, err
	}
	req := mcp.ReadResourceRequest{}
	req.Params.URI = name
	return c.ReadResource(ec.Ctx, req)
}

// resolveNameAndArgs implements spec.md §4.3's "optional explicit
// prompt, resource, tool arguments; body is either the argument name
// or a JSON object of arguments": when optName's option is unset, the
// body supplies the bare name; when it is set, the body (if present)
// must be a JSON object of call arguments.
func resolveNameAndArgs(ec *Context, optName string) (name string, args map[string]any, err error) {
	name = ec.Options[optName]
	body := strings.TrimSpace(ec.Body)
	if body == "" {
		return name, nil, nil
	}
	var parsed map[string]any
	if json.Unmarshal([]byte(body), &parsed) == nil {
		return name, parsed, nil
	}
	if name == "" {
		return body, nil, nil
	}
	return name, nil, errs.ResolveError("mcp %s body must be a JSON object of arguments when %q is set", optName, optName)
}

func toStringArgs(args map[string]any) map[string]string {
	if args == nil {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
