package mcp

import (
	"context"
	"fmt"
	"time"
)

// Observer records tool call outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ToolCall(tool string, elapsed time.Duration, err error)
}

type registeredTool struct {
	def       Tool
	validator *SchemaValidator
	run       toolFunc
}

// ToolInvoker validates arguments and dispatches tool calls.
type ToolInvoker struct {
	tools    map[string]registeredTool
	defs     []Tool
	observer Observer
}

// NewToolInvoker compiles every tool schema. observer may be nil.
func NewToolInvoker(executor *ToolExecutor, observer Observer) (*ToolInvoker, error) {
	handlers := executor.handlers()
	defs := ToolDefinitions()

	ti := &ToolInvoker{
		tools:    make(map[string]registeredTool, len(defs)),
		defs:     defs,
		observer: observer,
	}
	for _, def := range defs {
		run, ok := handlers[def.Name]
		if !ok {
			return nil, fmt.Errorf("mcp: no handler for tool %s", def.Name)
		}
		validator, err := NewSchemaValidator(def.Name, def.InputSchema)
		if err != nil {
			return nil, err
		}
		ti.tools[def.Name] = registeredTool{def: def, validator: validator, run: run}
	}
	return ti, nil
}

// Tools returns the tool definitions.
func (ti *ToolInvoker) Tools() []Tool {
	return ti.defs
}

// InvokeTool validates args and runs the named tool. Errors are *RPCError.
func (ti *ToolInvoker) InvokeTool(ctx context.Context, name string, args map[string]any) (result *CallToolResult, err error) {
	tool, ok := ti.tools[name]
	if !ok {
		return nil, &RPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Unknown tool: %s", name),
			Data:    name,
		}
	}

	start := time.Now()
	defer func() {
		if ti.observer != nil {
			ti.observer.ToolCall(name, time.Since(start), err)
		}
	}()

	if args == nil {
		args = map[string]any{}
	}
	if err := tool.validator.Validate(args); err != nil {
		return nil, FormatError(err)
	}

	out, err := tool.run(ctx, args)
	if err != nil {
		return nil, FormatError(err)
	}
	return textResult(out)
}
