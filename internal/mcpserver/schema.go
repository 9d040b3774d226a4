package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/GriffinCanCode/FileMaster/internal/types"
)

// toolSchema translates a registry tool into an MCP tool. Tools are exposed
// under their bare names.
func toolSchema(tool types.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(tool.Description),
		mcp.WithDestructiveHintAnnotation(tool.Destructive),
	}
	for _, p := range tool.Parameters {
		opts = append(opts, parameterOption(p))
	}
	return mcp.NewTool(tool.Name, opts...)
}

func parameterOption(p types.Parameter) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(p.Description)}
	if p.Required {
		props = append(props, mcp.Required())
	}

	switch p.Type {
	case types.TypeBoolean:
		return mcp.WithBoolean(p.Name, props...)
	case types.TypeInteger:
		return mcp.WithNumber(p.Name, props...)
	case types.TypeArray:
		items := p.Items
		if items == "" {
			items = types.TypeString
		}
		props = append(props, mcp.Items(map[string]any{"type": items}))
		return mcp.WithArray(p.Name, props...)
	default:
		return mcp.WithString(p.Name, props...)
	}
}
