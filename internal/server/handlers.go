package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imageio"
	"github.com/ironsheep/image-editor-mcp/internal/license"
	"github.com/ironsheep/image-editor-mcp/internal/ops"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "editor_open", "editor_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	entry := s.log.WithFields(logrus.Fields{"tool": params.Name, "duration": time.Since(start)})
	if err != nil {
		entry.WithError(err).Info("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sessions
	case "editor_open":
		return s.handleOpen(ctx, args)
	case "editor_close":
		return s.handleClose(args)
	case "editor_list":
		return s.handleList()

	// Edits
	case "editor_crop":
		return s.handleCrop(args)
	case "editor_resize":
		return s.handleResize(args)
	case "editor_add_text":
		return s.handleAddText(args)
	case "editor_add_shape":
		return s.handleAddShape(args)
	case "editor_filter":
		return s.handleFilter(args)
	case "editor_adjust":
		return s.handleAdjust(args)

	// History
	case "editor_undo":
		return s.handleHistoryMove(args, (*editor.Editor).Undo)
	case "editor_redo":
		return s.handleHistoryMove(args, (*editor.Editor).Redo)
	case "editor_reset":
		return s.handleHistoryMove(args, (*editor.Editor).Reset)
	case "editor_clear":
		return s.handleHistoryMove(args, (*editor.Editor).Clear)
	case "editor_history":
		return s.handleHistory(args)

	// Output
	case "editor_render":
		return s.handleRender(ctx, args)
	case "editor_export":
		return s.handleExport(ctx, args)
	case "editor_original":
		return s.handleOriginal(args)

	// Inspection
	case "editor_sample_color":
		return s.handleSampleColor(ctx, args)
	case "editor_sample_colors":
		return s.handleSampleColors(ctx, args)
	case "editor_dominant_colors":
		return s.handleDominantColors(ctx, args)

	// Licensing
	case "license_status":
		return s.licenseStatus(), nil
	case "license_activate":
		return s.handleLicenseActivate(ctx, args)
	case "license_clear":
		return s.handleLicenseClear(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) session(id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session_id is required")
	}
	return s.sessions.Get(id)
}

// sessionState summarizes a session after a call.
type sessionState struct {
	SessionID string         `json:"session_id"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Cursor    int            `json:"cursor"`
	Active    int            `json:"active_operations"`
	Total     int            `json:"total_operations"`
	CanUndo   bool           `json:"can_undo"`
	CanRedo   bool           `json:"can_redo"`
	Last      *ops.Operation `json:"last_operation,omitempty"`
}

func stateOf(id string, ed *editor.Editor) *sessionState {
	active := ed.ActiveHistory()
	w, h := ed.ProjectedSize()
	st := &sessionState{
		SessionID: id,
		Width:     w,
		Height:    h,
		Cursor:    ed.Cursor(),
		Active:    len(active),
		Total:     len(ed.AllHistory()),
		CanUndo:   ed.CanUndo(),
		CanRedo:   ed.CanRedo(),
	}
	if n := len(active); n > 0 {
		st.Last = &active[n-1]
	}
	return st
}

// edit runs fn on the session's editor and reports the resulting state.
func (s *Server) edit(id string, fn func(ed *editor.Editor) error) (interface{}, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.Do(func(ed *editor.Editor) (interface{}, error) {
		if err := fn(ed); err != nil {
			return nil, err
		}
		return stateOf(sess.ID, ed), nil
	})
}

// inspect runs fn on the session's editor and returns its result.
func (s *Server) inspect(id string, fn func(ed *editor.Editor) (interface{}, error)) (interface{}, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.Do(fn)
}

func (s *Server) editorOptions() []editor.Option {
	opts := []editor.Option{editor.WithLogger(s.log)}
	if s.runner != nil {
		opts = append(opts, editor.WithRunner(s.runner))
	}
	if s.license != nil {
		opts = append(opts, editor.WithEntitlement(s.license))
	}
	return opts
}

// === Session Handlers ===

type openArgs struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ImageBase64 string `json:"image_base64"`
}

type openResult struct {
	*sessionState
	Format string `json:"format"`
	Origin string `json:"origin"`
}

func (s *Server) handleOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a openArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	given := 0
	for _, v := range []string{a.Path, a.URL, a.ImageBase64} {
		if v != "" {
			given++
		}
	}
	if given != 1 {
		return nil, errors.New("exactly one of path, url or image_base64 is required")
	}

	var (
		ed     *editor.Editor
		origin string
		err    error
	)
	switch {
	case a.Path != "":
		origin = a.Path
		var d *imageio.Decoded
		if d, err = s.loader.Load(a.Path); err == nil {
			ed, err = editor.FromDecoded(d, s.editorOptions()...)
		}
	case a.URL != "":
		origin = a.URL
		ed, err = editor.FromURL(ctx, s.fetcher, a.URL, s.editorOptions()...)
	default:
		origin = "base64"
		var d *imageio.Decoded
		if d, err = imageio.DecodeBase64(a.ImageBase64); err == nil {
			ed, err = editor.FromDecoded(d, s.editorOptions()...)
		}
	}
	if err != nil {
		return nil, err
	}

	sess := s.sessions.Open(ed, origin)
	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"origin":  origin,
		"width":   ed.Source().Width(),
		"height":  ed.Source().Height(),
	}).Info("session opened")

	return &openResult{
		sessionState: stateOf(sess.ID, ed),
		Format:       ed.Source().Metadata().Format,
		Origin:       origin,
	}, nil
}

func (s *Server) handleClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.sessions.Close(a.SessionID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"session_id": a.SessionID, "closed": true}, nil
}

func (s *Server) handleList() (interface{}, error) {
	return map[string]interface{}{"sessions": s.sessions.List()}, nil
}

// === Edit Handlers ===

type cropArgs struct {
	sessionArgs
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.Crop(a.X, a.Y, a.Width, a.Height)
	})
}

type resizeArgs struct {
	sessionArgs
	Width               int    `json:"width"`
	Height              int    `json:"height"`
	Quality             string `json:"quality"`
	MaintainAspectRatio *bool  `json:"maintain_aspect_ratio"`
}

func (s *Server) handleResize(args json.RawMessage) (interface{}, error) {
	var a resizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.Resize(a.Width, a.Height, ops.ResizeOptions{
			Quality:             a.Quality,
			MaintainAspectRatio: a.MaintainAspectRatio,
		})
	})
}

type strokeArgs struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

func (a *strokeArgs) options() *ops.StrokeOptions {
	if a == nil {
		return nil
	}
	return &ops.StrokeOptions{Color: a.Color, Width: a.Width}
}

type addTextArgs struct {
	sessionArgs
	Text       string      `json:"text"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	FontSize   float64     `json:"font_size"`
	FontFamily string      `json:"font_family"`
	Color      string      `json:"color"`
	Align      string      `json:"align"`
	Baseline   string      `json:"baseline"`
	MaxWidth   float64     `json:"max_width"`
	Bold       bool        `json:"bold"`
	Italic     bool        `json:"italic"`
	Rotation   float64     `json:"rotation"`
	Stroke     *strokeArgs `json:"stroke"`
	Shadow     *struct {
		Color   string  `json:"color"`
		Blur    float64 `json:"blur"`
		OffsetX float64 `json:"offset_x"`
		OffsetY float64 `json:"offset_y"`
	} `json:"shadow"`
}

func (s *Server) handleAddText(args json.RawMessage) (interface{}, error) {
	var a addTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p := ops.TextParams{
		Text:       a.Text,
		X:          a.X,
		Y:          a.Y,
		FontSize:   a.FontSize,
		FontFamily: a.FontFamily,
		Color:      a.Color,
		Align:      a.Align,
		Baseline:   a.Baseline,
		MaxWidth:   a.MaxWidth,
		Bold:       a.Bold,
		Italic:     a.Italic,
		Rotation:   a.Rotation,
		Stroke:     a.Stroke.options(),
	}
	if a.Shadow != nil {
		p.Shadow = &ops.ShadowOptions{
			Color:   a.Shadow.Color,
			Blur:    a.Shadow.Blur,
			OffsetX: a.Shadow.OffsetX,
			OffsetY: a.Shadow.OffsetY,
		}
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.AddText(p)
	})
}

type addShapeArgs struct {
	sessionArgs
	Shape    string      `json:"shape"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Fill     string      `json:"fill"`
	Stroke   *strokeArgs `json:"stroke"`
	Rotation float64     `json:"rotation"`
}

func (s *Server) handleAddShape(args json.RawMessage) (interface{}, error) {
	var a addShapeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.AddShape(ops.ShapeParams{
			Type:     ops.ShapeType(a.Shape),
			X:        a.X,
			Y:        a.Y,
			Width:    a.Width,
			Height:   a.Height,
			Fill:     a.Fill,
			Stroke:   a.Stroke.options(),
			Rotation: a.Rotation,
		})
	})
}

type filterArgs struct {
	sessionArgs
	Filter    string   `json:"filter"`
	Intensity *float64 `json:"intensity"`
	Levels    *int     `json:"levels"`
	BlockSize *int     `json:"block_size"`
	Strength  *float64 `json:"strength"`
	Radius    *int     `json:"radius"`
}

func (s *Server) handleFilter(args json.RawMessage) (interface{}, error) {
	var a filterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.Filter(ops.FilterType(a.Filter), ops.FilterOptions{
			Intensity: a.Intensity,
			Levels:    a.Levels,
			BlockSize: a.BlockSize,
			Strength:  a.Strength,
			Radius:    a.Radius,
		})
	})
}

type adjustArgs struct {
	sessionArgs
	Adjustment string  `json:"adjustment"`
	Value      float64 `json:"value"`
}

func (s *Server) handleAdjust(args json.RawMessage) (interface{}, error) {
	var a adjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		return ed.Adjust(ops.AdjustmentType(a.Adjustment), a.Value)
	})
}

// === History Handlers ===

func (s *Server) handleHistoryMove(args json.RawMessage, move func(*editor.Editor)) (interface{}, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.edit(a.SessionID, func(ed *editor.Editor) error {
		move(ed)
		return nil
	})
}

type historyEntry struct {
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Active    bool          `json:"active"`
	Operation ops.Operation `json:"operation"`
}

func (s *Server) handleHistory(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		cursor := ed.Cursor()
		all := ed.AllHistory()
		entries := make([]historyEntry, len(all))
		for i, op := range all {
			entries[i] = historyEntry{Index: i, Name: op.Name(), Active: i <= cursor, Operation: op}
		}
		return map[string]interface{}{
			"session_id": a.SessionID,
			"cursor":     cursor,
			"can_undo":   ed.CanUndo(),
			"can_redo":   ed.CanRedo(),
			"operations": entries,
		}, nil
	})
}

// === Output Handlers ===

type imageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MimeType    string `json:"mime_type,omitempty"`
	Bytes       int    `json:"bytes,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Path        string `json:"path,omitempty"`
	Watermarked bool   `json:"watermarked"`
}

type renderArgs struct {
	sessionArgs
	IncludeImage bool `json:"include_image"`
}

func (s *Server) handleRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		if a.IncludeImage {
			enc, err := ed.Export(ctx, imageio.MimePNG, 0)
			if err != nil {
				return nil, err
			}
			w, h := ed.ProjectedSize()
			return &imageResult{
				Width:       w,
				Height:      h,
				MimeType:    enc.MimeType,
				Bytes:       len(enc.Data),
				ImageBase64: enc.Base64(),
				Watermarked: !ed.Licensed(),
			}, nil
		}
		surface, err := ed.Render(ctx)
		if err != nil {
			return nil, err
		}
		return &imageResult{Width: surface.Width(), Height: surface.Height()}, nil
	})
}

type exportArgs struct {
	sessionArgs
	Format  string  `json:"format"`
	Quality float64 `json:"quality"`
	Path    string  `json:"path"`
}

func (s *Server) handleExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = s.export.Format
	}
	if a.Quality == 0 {
		a.Quality = s.export.Quality
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		var (
			enc *imageio.Encoded
			err error
		)
		if a.Path != "" {
			enc, err = ed.Download(ctx, a.Path, a.Format, a.Quality)
		} else {
			enc, err = ed.Export(ctx, a.Format, a.Quality)
		}
		if err != nil {
			return nil, err
		}

		w, h := ed.ProjectedSize()
		res := &imageResult{
			Width:       w,
			Height:      h,
			MimeType:    enc.MimeType,
			Bytes:       len(enc.Data),
			Path:        a.Path,
			Watermarked: !ed.Licensed(),
		}
		if a.Path == "" {
			res.ImageBase64 = enc.Base64()
		}
		return res, nil
	})
}

func (s *Server) handleOriginal(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		src := ed.Source()
		enc, err := imageio.Encode(src.Image(), imageio.MimePNG, 0)
		if err != nil {
			return nil, err
		}
		return &imageResult{
			Width:       src.Width(),
			Height:      src.Height(),
			MimeType:    enc.MimeType,
			Bytes:       len(enc.Data),
			ImageBase64: enc.Base64(),
		}, nil
	})
}

// === Inspection Handlers ===

type sampleColorArgs struct {
	sessionArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		return ed.SampleColor(ctx, a.X, a.Y)
	})
}

type sampleColorsArgs struct {
	sessionArgs
	Points []editor.Point `json:"points"`
}

func (s *Server) handleSampleColors(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sampleColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, errors.New("points must not be empty")
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		samples, err := ed.SampleColors(ctx, a.Points)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"samples": samples}, nil
	})
}

type dominantColorsArgs struct {
	sessionArgs
	Count int `json:"count"`
}

func (s *Server) handleDominantColors(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a dominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	return s.inspect(a.SessionID, func(ed *editor.Editor) (interface{}, error) {
		colors, err := ed.DominantColors(ctx, a.Count)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"colors": colors}, nil
	})
}

// === License Handlers ===

type licenseStatus struct {
	Configured bool          `json:"configured"`
	Licensed   bool          `json:"licensed"`
	DevMode    bool          `json:"dev_mode"`
	Info       *license.Info `json:"info,omitempty"`
}

func (s *Server) licenseStatus() *licenseStatus {
	if s.license == nil {
		return &licenseStatus{}
	}
	st := &licenseStatus{
		Configured: true,
		Licensed:   s.license.IsValid(),
		DevMode:    s.license.DevMode(),
		Info:       s.license.Info(),
	}
	if st.Info != nil {
		st.Info.Key = maskKey(st.Info.Key)
	}
	return st
}

// maskKey hides all but the last four characters of a license key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

var errNoLicensing = errors.New("licensing is not configured")

type licenseActivateArgs struct {
	Key string `json:"key"`
}

func (s *Server) handleLicenseActivate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a licenseActivateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.license == nil {
		return nil, errNoLicensing
	}
	if _, err := s.license.SetKey(ctx, a.Key); err != nil {
		return nil, err
	}
	return s.licenseStatus(), nil
}

func (s *Server) handleLicenseClear(ctx context.Context) (interface{}, error) {
	if s.license == nil {
		return nil, errNoLicensing
	}
	if err := s.license.Clear(ctx); err != nil {
		return nil, err
	}
	return s.licenseStatus(), nil
}
