package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sizeSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"width", "height"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Get the width, height, format and file size of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cascade_detect",
			Description: "Run a trained Haar cascade over a photo and return the detected regions. Parameters not given use the server's configured defaults. Zero detections is a normal result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"model": map[string]interface{}{
						"type":        "string",
						"description": "Path to the cascade XML written by opencv_traincascade",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"scale_factor": map[string]interface{}{
						"type":        "number",
						"description": "Pyramid step between scales, between 1 and 2 exclusive (default 1.01)",
					},
					"min_neighbors": map[string]interface{}{
						"type":        "integer",
						"description": "Raw windows that must agree on a region; 0 returns ungrouped windows (default 5)",
					},
					"min_size": sizeSchema("Smallest window in pixels (default 10x10)"),
					"max_size": sizeSchema("Largest window in pixels (default 450x450)"),
					"equalize": map[string]interface{}{
						"type":        "boolean",
						"description": "Equalize the histogram before scanning (default true)",
					},
					"merge_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Fraction of the smaller window two windows must share to be grouped (default 0.5)",
					},
					"annotated_out": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write a copy of the image with numbered boxes drawn",
					},
				},
				"required": []string{"model", "path"},
			},
		},
		{
			Name:        "dataset_status",
			Description: "Report how many numbered samples a collection directory holds and which id the next extracted sample will get.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Collection directory",
					},
					"ext": map[string]interface{}{
						"type":        "string",
						"description": "Sample extension (default from config, usually jpg)",
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "manifest_write",
			Description: "Write the opencv_traincascade annotation file for a collection (one \"path 1 0 0 w h\" line per sample), or a background list with negatives=true. The target is replaced atomically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Collection directory",
					},
					"prefix": map[string]interface{}{
						"type":        "string",
						"description": "Path prefix written before each filename, e.g. \"Good\"",
					},
					"out": map[string]interface{}{
						"type":        "string",
						"description": "Output file (default info.dat, or bg.txt for negatives, next to dir)",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Fixed object width; omit to read each sample's size",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Fixed object height; omit to read each sample's size",
					},
					"negatives": map[string]interface{}{
						"type":        "boolean",
						"description": "Write a plain path list for background images",
						"default":     false,
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "dataset_renumber",
			Description: "Rename the images in a directory to 1..n in numeric order. Files that cannot be renamed are skipped and reported.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to renumber",
					},
					"prefix": map[string]interface{}{
						"type":        "string",
						"description": "Prefix for the returned path list",
					},
					"list": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write the path list to",
					},
				},
				"required": []string{"dir"},
			},
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
