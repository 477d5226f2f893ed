package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description, "enum": values}
}

var sessionIDProp = prop("string", "Session ID returned by editor_open")

// schema builds an object schema. session_id is added to properties and
// required when withSession is set.
func schema(withSession bool, properties map[string]interface{}, required ...string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	if withSession {
		properties["session_id"] = sessionIDProp
		required = append([]string{"session_id"}, required...)
	}
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strokeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional outline",
		"properties": map[string]interface{}{
			"color": prop("string", "Stroke color (#rgb, #rrggbb, #rrggbbaa or a CSS name)"),
			"width": prop("number", "Stroke width in pixels, centred on the outline"),
		},
		"required": []string{"color", "width"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sessions
		{
			Name:        "editor_open",
			Description: "Open an image for editing and return a session ID. Give exactly one of path, url or image_base64. Edits are non-destructive: the original is kept and every render replays the edit history.",
			InputSchema: schema(false, map[string]interface{}{
				"path":         prop("string", "Absolute path to the image file"),
				"url":          prop("string", "HTTP(S) URL of the image"),
				"image_base64": prop("string", "Base64 image data, optionally as a data: URL"),
			}),
		},
		{
			Name:        "editor_close",
			Description: "Close an editing session and free its memory.",
			InputSchema: schema(true, nil),
		},
		{
			Name:        "editor_list",
			Description: "List open editing sessions.",
			InputSchema: schema(false, nil),
		},

		// Edits
		{
			Name:        "editor_crop",
			Description: "Crop to a rectangle. The rectangle must lie within the image as it is after the edits already applied.",
			InputSchema: schema(true, map[string]interface{}{
				"x":      prop("integer", "Left edge (0-based)"),
				"y":      prop("integer", "Top edge (0-based)"),
				"width":  prop("integer", "Width in pixels"),
				"height": prop("integer", "Height in pixels"),
			}, "x", "y", "width", "height"),
		},
		{
			Name:        "editor_resize",
			Description: "Resize to exactly width x height. By default the whole image is stretched to fit. With maintain_aspect_ratio the image keeps its proportions and is centred on transparent padding.",
			InputSchema: schema(true, map[string]interface{}{
				"width":                 prop("integer", "Target width (1-16384)"),
				"height":                prop("integer", "Target height (1-16384)"),
				"quality":               enumProp("Resampling quality. Default high", "low", "medium", "high"),
				"maintain_aspect_ratio": prop("boolean", "Keep proportions and pad with transparency instead of stretching. Default false"),
			}, "width", "height"),
		},
		{
			Name:        "editor_add_text",
			Description: "Draw a line of text anchored at (x, y).",
			InputSchema: schema(true, map[string]interface{}{
				"text":        prop("string", "Text to draw"),
				"x":           prop("number", "Anchor X"),
				"y":           prop("number", "Anchor Y"),
				"font_size":   prop("number", "Font size in pixels. Default 24"),
				"font_family": prop("string", "Font family; names containing 'mono' or 'courier' select a monospace face. Default sans-serif"),
				"color":       prop("string", "Fill color. Default #000000"),
				"align":       enumProp("Horizontal alignment relative to x. Default left", "left", "center", "right"),
				"baseline":    enumProp("Vertical alignment relative to y. Default alphabetic", "top", "middle", "bottom", "alphabetic"),
				"max_width":   prop("number", "Condense the text horizontally to fit this width. 0 disables"),
				"bold":        prop("boolean", "Bold face"),
				"italic":      prop("boolean", "Italic face"),
				"rotation":    prop("number", "Rotation in degrees about the anchor"),
				"stroke":      strokeSchema(),
				"shadow": map[string]interface{}{
					"type":        "object",
					"description": "Optional drop shadow",
					"properties": map[string]interface{}{
						"color":    prop("string", "Shadow color"),
						"blur":     prop("number", "Blur radius in pixels"),
						"offset_x": prop("number", "Horizontal offset"),
						"offset_y": prop("number", "Vertical offset"),
					},
					"required": []string{"color"},
				},
			}, "text", "x", "y"),
		},
		{
			Name:        "editor_add_shape",
			Description: "Draw a rectangle or ellipse inside the box at (x, y), optionally rotated about its centre.",
			InputSchema: schema(true, map[string]interface{}{
				"shape":    enumProp("Shape type", "rectangle", "ellipse"),
				"x":        prop("number", "Left edge of the bounding box"),
				"y":        prop("number", "Top edge of the bounding box"),
				"width":    prop("number", "Bounding box width"),
				"height":   prop("number", "Bounding box height"),
				"fill":     prop("string", "Optional fill color"),
				"stroke":   strokeSchema(),
				"rotation": prop("number", "Rotation in degrees"),
			}, "shape", "x", "y", "width", "height"),
		},
		{
			Name:        "editor_filter",
			Description: "Apply a filter, blended with the unfiltered image by intensity. Out-of-range options are clamped.",
			InputSchema: schema(true, map[string]interface{}{
				"filter": enumProp("Filter type",
					"grayscale", "sepia", "invert", "posterize", "vintage", "vignette",
					"pixelate", "blur", "sharpen", "edgeDetection"),
				"intensity":  prop("number", "Blend factor 0-1. Default 1"),
				"levels":     prop("integer", "posterize: levels per channel, 2-16. Default 4"),
				"block_size": prop("integer", "pixelate: block size in pixels. Default 10"),
				"strength":   prop("number", "vignette: darkening at the corners, 0-1. Default 0.5"),
				"radius":     prop("integer", "blur: number of passes, 1-10. Default 1"),
			}, "filter"),
		},
		{
			Name:        "editor_adjust",
			Description: "Apply a tonal adjustment. value ranges from -100 to 100 and is clamped; 0 leaves the image unchanged.",
			InputSchema: schema(true, map[string]interface{}{
				"adjustment": enumProp("Adjustment type", "brightness", "contrast", "saturation", "exposure", "temperature"),
				"value":      prop("number", "Amount, -100 to 100"),
			}, "adjustment", "value"),
		},

		// History
		{
			Name:        "editor_undo",
			Description: "Undo the most recent edit.",
			InputSchema: schema(true, nil),
		},
		{
			Name:        "editor_redo",
			Description: "Redo the most recently undone edit.",
			InputSchema: schema(true, nil),
		},
		{
			Name:        "editor_reset",
			Description: "Undo every edit. The edits stay available to redo until a new edit is made.",
			InputSchema: schema(true, nil),
		},
		{
			Name:        "editor_clear",
			Description: "Discard every edit, including those available to redo.",
			InputSchema: schema(true, nil),
		},
		{
			Name:        "editor_history",
			Description: "List every recorded edit with its parameters and whether it is active.",
			InputSchema: schema(true, nil),
		},

		// Output
		{
			Name:        "editor_render",
			Description: "Render the active edits. Returns the output size, and the image as base64 PNG when include_image is set (watermarked without a license).",
			InputSchema: schema(true, map[string]interface{}{
				"include_image": prop("boolean", "Include the rendered image"),
			}),
		},
		{
			Name:        "editor_export",
			Description: "Render and encode the image. Without a valid license the output carries an UNLICENSED watermark. With path the file is written and no image data is returned.",
			InputSchema: schema(true, map[string]interface{}{
				"format":  enumProp("Output format. WebP is written as PNG", "png", "jpeg", "webp", "image/png", "image/jpeg", "image/webp"),
				"quality": prop("number", "JPEG quality 0-1. Default 0.92"),
				"path":    prop("string", "Optional file path to write"),
			}),
		},
		{
			Name:        "editor_original",
			Description: "Return the unedited source image as base64 PNG.",
			InputSchema: schema(true, nil),
		},

		// Inspection
		{
			Name:        "editor_sample_color",
			Description: "Get the color at a pixel of the rendered image in hex, RGBA and HSL.",
			InputSchema: schema(true, map[string]interface{}{
				"x": prop("integer", "X coordinate (0-based)"),
				"y": prop("integer", "Y coordinate (0-based)"),
			}, "x", "y"),
		},
		{
			Name:        "editor_sample_colors",
			Description: "Sample colors at several pixels of the rendered image in one call.",
			InputSchema: schema(true, map[string]interface{}{
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Points to sample",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x":     prop("integer", "X coordinate"),
							"y":     prop("integer", "Y coordinate"),
							"label": prop("string", "Optional label echoed in the result"),
						},
						"required": []string{"x", "y"},
					},
				},
			}, "points"),
		},
		{
			Name:        "editor_dominant_colors",
			Description: "Find the most common colors of the rendered image.",
			InputSchema: schema(true, map[string]interface{}{
				"count": prop("integer", "Number of colors to return. Default 5"),
			}),
		},

		// Licensing
		{
			Name:        "license_status",
			Description: "Report whether exports are licensed (unwatermarked).",
			InputSchema: schema(false, nil),
		},
		{
			Name:        "license_activate",
			Description: "Validate a license key and make it active.",
			InputSchema: schema(false, map[string]interface{}{
				"key": prop("string", "License key"),
			}, "key"),
		},
		{
			Name:        "license_clear",
			Description: "Forget the active license and its cached validation.",
			InputSchema: schema(false, nil),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
