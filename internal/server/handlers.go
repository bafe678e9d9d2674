package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/cascade-tools/internal/dataset"
	"github.com/ironsheep/cascade-tools/internal/detection"
	"github.com/ironsheep/cascade-tools/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cascade_detect").
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

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warnf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "cascade_detect":
		return s.handleCascadeDetect(ctx, args)
	case "dataset_status":
		return s.handleDatasetStatus(args)
	case "manifest_write":
		return s.handleManifestWrite(args)
	case "dataset_renumber":
		return s.handleDatasetRenumber(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func requirePath(field, value string) error {
	if value == "" {
		return fmt.Errorf("missing required argument %q", field)
	}
	return nil
}

// === Image ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Detection ===

type cascadeDetectArgs struct {
	Model          string          `json:"model"`
	Path           string          `json:"path"`
	ScaleFactor    *float64        `json:"scale_factor"`
	MinNeighbors   *int            `json:"min_neighbors"`
	MinSize        *detection.Size `json:"min_size"`
	MaxSize        *detection.Size `json:"max_size"`
	Equalize       *bool           `json:"equalize"`
	MergeThreshold *float64        `json:"merge_threshold"`
	AnnotatedOut   string          `json:"annotated_out"`
}

// params applies the call's overrides to the configured defaults.
func (a *cascadeDetectArgs) params(base detection.Params) detection.Params {
	p := base
	if a.ScaleFactor != nil {
		p.ScaleFactor = *a.ScaleFactor
	}
	if a.MinNeighbors != nil {
		p.MinNeighbors = *a.MinNeighbors
	}
	if a.MinSize != nil {
		p.MinSize = *a.MinSize
	}
	if a.MaxSize != nil {
		p.MaxSize = *a.MaxSize
	}
	if a.Equalize != nil {
		p.Equalize = *a.Equalize
	}
	if a.MergeThreshold != nil {
		p.MergeThreshold = *a.MergeThreshold
	}
	return p
}

type cascadeDetectResult struct {
	*detection.Result
	Model        string `json:"model"`
	Path         string `json:"path"`
	AnnotatedOut string `json:"annotated_out,omitempty"`
}

func (s *Server) handleCascadeDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cascadeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("model", a.Model); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}

	model, err := s.models.Load(a.Model)
	if err != nil {
		return nil, err
	}
	det, err := detection.NewDetector(model, a.params(s.cfg.Detect))
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, &detection.InvalidImageError{Path: a.Path, Reason: "cannot decode", Err: err}
	}
	res, err := det.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	out := &cascadeDetectResult{Result: res, Model: a.Model, Path: a.Path}
	if a.AnnotatedOut != "" {
		annotated := imaging.DrawBoxes(img, detection.Boxes(res.Detections), s.cfg.Overlay.BoxColor, s.cfg.Overlay.LineWidth)
		if err := imaging.Save(annotated, a.AnnotatedOut, s.cfg.Extract.Quality); err != nil {
			return nil, err
		}
		out.AnnotatedOut = a.AnnotatedOut
	}
	s.log.Infof("Detected %d objects in %s (%d candidates, %d scales)", res.Count, a.Path, res.Candidates, res.Scales)
	return out, nil
}

// === Dataset ===

type datasetStatusArgs struct {
	Dir string `json:"dir"`
	Ext string `json:"ext"`
}

type datasetStatusResult struct {
	Dir      string `json:"dir"`
	Ext      string `json:"ext"`
	Samples  int    `json:"samples"`
	NextID   int    `json:"next_id"`
	AllFiles int    `json:"image_files"`
}

func (s *Server) handleDatasetStatus(args json.RawMessage) (interface{}, error) {
	var a datasetStatusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("dir", a.Dir); err != nil {
		return nil, err
	}
	if a.Ext == "" {
		a.Ext = s.cfg.Extract.Ext
	}

	num, err := dataset.ScanNumberer(a.Dir, a.Ext)
	if err != nil {
		return nil, err
	}
	all := 0
	if names, err := dataset.ListSamples(a.Dir); err == nil {
		all = len(names)
	}
	return &datasetStatusResult{
		Dir:      a.Dir,
		Ext:      a.Ext,
		Samples:  num.Existing(),
		NextID:   num.Start(),
		AllFiles: all,
	}, nil
}

type manifestWriteArgs struct {
	Dir       string `json:"dir"`
	Prefix    string `json:"prefix"`
	Out       string `json:"out"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Negatives bool   `json:"negatives"`
}

type manifestWriteResult struct {
	Out     string `json:"out"`
	Records int    `json:"records"`
	First   string `json:"first,omitempty"`
}

func (s *Server) handleManifestWrite(args json.RawMessage) (interface{}, error) {
	var a manifestWriteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("dir", a.Dir); err != nil {
		return nil, err
	}
	if a.Out == "" {
		a.Out = filepath.Join(filepath.Dir(filepath.Clean(a.Dir)), "info.dat")
		if a.Negatives {
			a.Out = filepath.Join(filepath.Dir(filepath.Clean(a.Dir)), "bg.txt")
		}
	}

	var lines []string
	if a.Negatives {
		names, err := dataset.ListSamples(a.Dir)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			lines = append(lines, filepath.ToSlash(filepath.Join(a.Prefix, n)))
		}
		if err := dataset.WriteList(a.Out, lines); err != nil {
			return nil, err
		}
	} else {
		var region *dataset.Region
		if a.Width > 0 && a.Height > 0 {
			region = &dataset.Region{Width: a.Width, Height: a.Height}
		}
		records, err := dataset.BuildManifest(a.Dir, a.Prefix, region)
		if err != nil {
			return nil, err
		}
		if err := dataset.WriteManifest(a.Out, records); err != nil {
			return nil, err
		}
		for _, r := range records {
			lines = append(lines, r.String())
		}
	}

	res := &manifestWriteResult{Out: a.Out, Records: len(lines)}
	if len(lines) > 0 {
		res.First = lines[0]
	}
	return res, nil
}

type datasetRenumberArgs struct {
	Dir    string `json:"dir"`
	Prefix string `json:"prefix"`
	List   string `json:"list"`
}

func (s *Server) handleDatasetRenumber(args json.RawMessage) (interface{}, error) {
	var a datasetRenumberArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("dir", a.Dir); err != nil {
		return nil, err
	}
	res, err := dataset.Renumber(a.Dir, a.Prefix, s.log)
	if err != nil {
		return nil, err
	}
	if a.List != "" {
		if err := dataset.WriteList(a.List, res.Lines); err != nil {
			return nil, err
		}
	}
	return res, nil
}
