// Package server implements an MCP (Model Context Protocol) server that
// exposes the cascade tools to MCP clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_info: Size and format of an image
//   - cascade_detect: Run a cascade over a photo, optionally saving an annotated copy
//   - dataset_status: Sample count and next id of a collection
//   - manifest_write: Write the positives annotation file or a negatives list
//   - dataset_renumber: Compact a directory to 1..n
//
// # Caching
//
// Decoded images and loaded cascades are cached by path for the lifetime of
// the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
