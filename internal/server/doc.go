// Package server implements the MCP (Model Context Protocol) server for
// non-destructive image editing.
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
// # Sessions
//
// editor_open loads an image from a path, URL or base64 string and returns a
// session ID (a ULID). Every other editor_* tool takes that ID. A session
// owns one editor: the source image plus its edit history. Calls on the same
// session are serialized by a per-session lock; different sessions proceed
// in parallel.
//
// # Available Tools
//
// Sessions: editor_open, editor_close, editor_list
//
// Edits (appended to history, validated first):
//   - editor_crop, editor_resize
//   - editor_add_text, editor_add_shape
//   - editor_filter: grayscale, sepia, invert, posterize, vintage, vignette,
//     pixelate, blur, sharpen, edgeDetection
//   - editor_adjust: brightness, contrast, saturation, exposure, temperature
//
// History: editor_undo, editor_redo, editor_reset, editor_clear,
// editor_history
//
// Output: editor_render, editor_export, editor_original
//
// Inspection: editor_sample_color, editor_sample_colors,
// editor_dominant_colors
//
// Licensing: license_status, license_activate, license_clear
//
// # Watermarking
//
// Image data leaving the server through editor_export or editor_render with
// include_image carries an "UNLICENSED" watermark unless the configured
// license manager reports a valid license. editor_original returns the
// caller's own input and is never marked.
//
// # Image Caching
//
// Files opened by path are decoded once and cached by path for the lifetime
// of the server. Sessions copy the decoded pixels, so the cache is never
// modified.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Config{Runner: pool, License: manager})
//	if err := srv.Run(ctx); err != nil {
//		logrus.Fatal(err)
//	}
package server
