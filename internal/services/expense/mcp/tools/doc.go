// Package tools defines the pennywise MCP tools and their handlers.
//
// Each tool pairs a definition (name and description) with a typed handler
// built over the expense application service. Input and output structs carry
// jsonschema tags so clients see the same field docs the handlers enforce.
package tools
