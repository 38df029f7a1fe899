package tool

import (
	"context"
	"fmt"

	"github.com/soragoto/kokoro/core"
)

// Collection is the tool registry: it maps tool names to implementations
// while preserving registration order for schema export.
type Collection struct {
	order   []string
	toolMap map[string]Tool
}

// NewCollection creates a registry holding the given tools. A later tool
// with a duplicate name replaces the earlier one.
func NewCollection(tools ...Tool) *Collection {
	c := &Collection{toolMap: make(map[string]Tool, len(tools))}
	c.Add(tools...)
	return c
}

// Add registers tools, replacing any existing tool with the same name.
func (c *Collection) Add(tools ...Tool) {
	for _, t := range tools {
		if _, exists := c.toolMap[t.Name()]; !exists {
			c.order = append(c.order, t.Name())
		}
		c.toolMap[t.Name()] = t
	}
}

// Get returns the tool registered under name.
func (c *Collection) Get(name string) (Tool, bool) {
	t, ok := c.toolMap[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (c *Collection) Tools() []Tool {
	out := make([]Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.toolMap[name])
	}
	return out
}

// Len returns the number of registered tools.
func (c *Collection) Len() int { return len(c.order) }

// Execute invokes the named tool. An unregistered name is an error; tool
// failures propagate as returned by the tool.
func (c *Collection) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, ok := c.toolMap[name]
	if !ok {
		return Result{}, fmt.Errorf("tool %q is not registered", name)
	}
	return t.Execute(ctx, args)
}

// Category returns the message category of the named tool, or CategoryTool
// when the tool does not declare one.
func (c *Collection) Category(name string) core.MessageCategory {
	if t, ok := c.toolMap[name]; ok {
		if ct, ok := t.(Categorized); ok {
			return ct.Category()
		}
	}
	return core.CategoryTool
}
