package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/imageio"
	"github.com/ironsheep/image-editor-mcp/internal/license"
	"github.com/ironsheep/image-editor-mcp/internal/pixel"
)

// Name and Version are reported in the initialize handshake.
var (
	Name    = "image-editor-mcp"
	Version = "0.1.0"
)

// maxRequestBytes bounds one JSON-RPC line; base64 images make requests large.
const maxRequestBytes = 96 << 20

// Server handles MCP protocol communication
type Server struct {
	sessions *Sessions
	loader   *imageio.Loader
	fetcher  *imageio.Fetcher
	runner   pixel.Runner
	license  *license.Manager
	export   ExportDefaults
	log      logrus.FieldLogger
}

// ExportDefaults apply when an export call leaves format or quality unset.
type ExportDefaults struct {
	Format  string
	Quality float64
}

// Config wires the server's collaborators. The zero value is usable: kernels
// run inline, there is no license (exports are watermarked) and URLs are
// fetched with a 30 second timeout.
type Config struct {
	Runner       pixel.Runner
	License      *license.Manager
	FetchTimeout time.Duration
	Export       ExportDefaults
	Logger       logrus.FieldLogger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(cfg Config) *Server {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = imageio.MimePNG
	}
	return &Server{
		sessions: NewSessions(),
		loader:   imageio.NewLoader(),
		fetcher:  imageio.NewFetcher(cfg.FetchTimeout),
		runner:   cfg.Runner,
		license:  cfg.License,
		export:   cfg.Export,
		log:      cfg.Logger,
	}
}

// Run serves requests from stdin, writing responses to stdout, until stdin
// is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestBytes)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("failed to parse request")
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.log.WithError(err).Error("failed to encode response")
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.WithFields(logrus.Fields{"method": req.Method, "id": req.ID}).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// Close drops every session and cached image.
func (s *Server) Close() {
	s.sessions.CloseAll()
	s.loader.Clear()
}
