package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/ironsheep/region-tools-mcp/internal/codec"
	"github.com/ironsheep/region-tools-mcp/internal/detection"
	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/label"
	"github.com/ironsheep/region-tools-mcp/internal/morph"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/ocr"
	"github.com/ironsheep/region-tools-mcp/internal/scan"
	"github.com/ironsheep/region-tools-mcp/internal/setops"
	"github.com/ironsheep/region-tools-mcp/internal/stats"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "region_from_image", "region_union").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if s.cfg.Debug() {
		log.Printf("Tool %s finished in %s (err=%v)", params.Name, time.Since(start), err)
	}
	if err != nil {
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Resolves object IDs through the store
//  4. Calls the appropriate region operation
//  5. Stores any new object and returns its summary
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Sources
	case "region_image_info":
		return s.handleImageInfo(args)
	case "region_from_image":
		return s.handleFromImage(args)
	case "region_mask":
		return s.handleMask(args)
	case "region_threshold":
		return s.handleThreshold(args)
	case "region_colour_threshold":
		return s.handleColourThreshold(args)
	case "region_rect":
		return s.handleRect(args)
	case "region_polygon":
		return s.handlePolygon(args)
	case "region_stack":
		return s.handleStack(args)
	case "region_text_mask":
		return s.handleTextMask(args)

	// Set Algebra
	case "region_union":
		return s.handleUnion(args)
	case "region_intersect":
		return s.handleIntersect(args)
	case "region_diff":
		return s.handleDiff(args)
	case "region_xor":
		return s.handleXor(args)
	case "region_complement":
		return s.handleComplement(args)
	case "region_crop":
		return s.handleCrop(args)

	// Morphology and Labeling
	case "region_dilate":
		return s.handleMorph(args, morph.Dilation)
	case "region_erode":
		return s.handleMorph(args, morph.Erosion)
	case "region_label":
		return s.handleLabel(args)
	case "region_shapes":
		return s.handleShapes(args)

	// Inspection
	case "region_info":
		return s.handleInfo(args)
	case "region_list":
		return s.handleList(args)
	case "region_intervals":
		return s.handleIntervals(args)
	case "region_grey_stats":
		return s.handleGreyStats(args)
	case "region_compare":
		return s.handleCompare(args)

	// Persistence and Lifetime
	case "region_save":
		return s.handleSave(args)
	case "region_load":
		return s.handleLoad(args)
	case "region_free":
		return s.handleFree(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// ObjectSummary is the result of every tool that creates an object.
type ObjectSummary struct {
	ID string `json:"id"`
	imaging.Measurement
}

// keep stores obj, adopting the caller's link, and summarizes it. obj is
// released if it cannot be measured.
func (s *Server) keep(obj *object.Object, err error) (*ObjectSummary, error) {
	if err != nil {
		return nil, err
	}
	m, err := imaging.Measure(obj)
	if err != nil {
		object.Free(obj)
		return nil, err
	}
	return &ObjectSummary{ID: s.store.Put(obj), Measurement: *m}, nil
}

// keepAll stores every object in objs. Objects not yet stored are released
// on failure.
func (s *Server) keepAll(objs []*object.Object) ([]ObjectSummary, error) {
	out := make([]ObjectSummary, 0, len(objs))
	for i, obj := range objs {
		sum, err := s.keep(obj, nil)
		if err != nil {
			object.FreeAll(objs[i+1:])
			return out, err
		}
		out = append(out, *sum)
	}
	return out, nil
}

// connectivity returns conn, or the configured default for obj's kind
// when conn is zero.
func (s *Server) connectivity(conn int, obj *object.Object) (domain.Connectivity, error) {
	if conn == 0 {
		if obj.Kind() == object.Kind3D {
			return domain.Connectivity(s.cfg.Connectivity3D), nil
		}
		return domain.Connectivity(s.cfg.Connectivity2D), nil
	}
	c := domain.Connectivity(conn)
	if !c.Is2D() && !c.Is3D() {
		return 0, fmt.Errorf("connectivity %d: %w", conn, domain.ErrUnsupported)
	}
	return c, nil
}

// finite maps NaN and infinities, which JSON cannot carry, to nil.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// === Source Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type rectArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r rectArgs) rect() image.Rectangle { return image.Rect(r.X1, r.Y1, r.X2, r.Y2) }

type fromImageArgs struct {
	Path   string  `json:"path"`
	Region string  `json:"region"`
	Blur   float64 `json:"blur"`
	Colour bool    `json:"colour"`
	rectArgs
}

func (s *Server) handleFromImage(args json.RawMessage) (interface{}, error) {
	var a fromImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	opts := imaging.ConvertOptions{Blur: a.Blur, Colour: a.Colour}
	switch {
	case a.Region != "":
		if opts.Crop, err = imaging.NamedRegion(img.Bounds(), a.Region); err != nil {
			return nil, err
		}
	case !a.rect().Empty():
		opts.Crop = a.rect()
	}
	obj, err := imaging.ObjectFromImage(img, opts)
	if err != nil {
		return nil, err
	}
	props := object.NewPropertyList()
	props.SetString("source", a.Path)
	obj.SetProps(props)
	return s.keep(obj, nil)
}

type maskArgs struct {
	Path  string `json:"path"`
	Level int    `json:"level"`
}

func (s *Server) handleMask(args json.RawMessage) (interface{}, error) {
	var a maskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Level < 0 || a.Level > 255 {
		return nil, fmt.Errorf("mask level %d outside 0-255: %w", a.Level, domain.ErrUnsupported)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.keep(imaging.MaskFromImage(img, uint8(a.Level)))
}

type thresholdArgs struct {
	ID    string  `json:"id"`
	Level float64 `json:"level"`
	Mode  string  `json:"mode"`
}

func (s *Server) handleThreshold(args json.RawMessage) (interface{}, error) {
	var a thresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode, err := imaging.ParseThresholdMode(a.Mode)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	return s.keep(imaging.Threshold(obj, a.Level, mode))
}

type colourThresholdArgs struct {
	ID          string  `json:"id"`
	Colour      string  `json:"colour"`
	MaxDistance float64 `json:"max_distance"`
}

func (s *Server) handleColourThreshold(args json.RawMessage) (interface{}, error) {
	var a colourThresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxDistance == 0 {
		a.MaxDistance = 0.1
	}
	target, err := imaging.ParseColour(a.Colour)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	return s.keep(imaging.ColourThreshold(obj, target, a.MaxDistance))
}

type boxArgs struct {
	Line1  int `json:"line1"`
	LastLn int `json:"lastln"`
	Kol1   int `json:"kol1"`
	LastKl int `json:"lastkl"`
}

func (b boxArgs) box() domain.BBox {
	return domain.BBox{Line1: b.Line1, LastLn: b.LastLn, Kol1: b.Kol1, LastKl: b.LastKl}
}

func (s *Server) handleRect(args json.RawMessage) (interface{}, error) {
	var a boxArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	d, err := domain.NewRect(a.Line1, a.LastLn, a.Kol1, a.LastKl)
	if err != nil {
		return nil, err
	}
	return s.keep(object.New2D(d, nil))
}

type pointArg struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type polygonArgs struct {
	Points []pointArg `json:"points"`
}

func (s *Server) handlePolygon(args json.RawMessage) (interface{}, error) {
	var a polygonArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pts := lo.Map(a.Points, func(p pointArg, _ int) image.Point {
		return image.Pt(p.X, p.Y)
	})
	return s.keep(imaging.PolygonObject(pts))
}

type stackArgs struct {
	Paths []string          `json:"paths"`
	Level int               `json:"level"`
	Voxel *domain.VoxelSize `json:"voxel"`
}

func (s *Server) handleStack(args json.RawMessage) (interface{}, error) {
	var a stackArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Level < 0 || a.Level > 255 {
		return nil, fmt.Errorf("stack level %d outside 0-255: %w", a.Level, domain.ErrUnsupported)
	}
	voxel := s.cfg.VoxelSize()
	if a.Voxel != nil {
		voxel = *a.Voxel
	}
	imgs, err := s.cache.LoadAll(a.Paths)
	if err != nil {
		return nil, err
	}
	return s.keep(imaging.StackFromImages(imgs, uint8(a.Level), voxel))
}

type textMaskArgs struct {
	Path          string  `json:"path"`
	Language      string  `json:"language"`
	MinConfidence float64 `json:"min_confidence"`
	Pad           int     `json:"pad"`
}

type textMaskResult struct {
	*ObjectSummary
	Words []ocr.TextRegion `json:"words"`
}

func (s *Server) handleTextMask(args json.RawMessage) (interface{}, error) {
	var a textMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := ocr.TextMaskFromImage(a.Path, ocr.MaskOptions{
		Language:      a.Language,
		MinConfidence: a.MinConfidence,
		Pad:           a.Pad,
	})
	if err != nil {
		return nil, err
	}
	sum, err := s.keep(mask.Object, nil)
	if err != nil {
		return nil, err
	}
	return &textMaskResult{ObjectSummary: sum, Words: mask.Words}, nil
}

// === Set Algebra Handlers ===

type idsArgs struct {
	IDs            []string `json:"ids"`
	TransferValues bool     `json:"transfer_values"`
}

func (s *Server) handleUnion(args json.RawMessage) (interface{}, error) {
	var a idsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	objs, err := s.store.GetAll(a.IDs)
	if err != nil {
		return nil, err
	}
	return s.keep(setops.Union(objs, a.TransferValues))
}

func (s *Server) handleIntersect(args json.RawMessage) (interface{}, error) {
	var a idsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	objs, err := s.store.GetAll(a.IDs)
	if err != nil {
		return nil, err
	}
	return s.keep(setops.Intersection(objs, a.TransferValues))
}

type pairArgs struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (s *Server) pair(args json.RawMessage) (*object.Object, *object.Object, error) {
	var a pairArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, nil, err
	}
	objs, err := s.store.GetAll([]string{a.A, a.B})
	if err != nil {
		return nil, nil, err
	}
	return objs[0], objs[1], nil
}

func (s *Server) handleDiff(args json.RawMessage) (interface{}, error) {
	a, b, err := s.pair(args)
	if err != nil {
		return nil, err
	}
	return s.keep(setops.Difference(a, b))
}

func (s *Server) handleXor(args json.RawMessage) (interface{}, error) {
	a, b, err := s.pair(args)
	if err != nil {
		return nil, err
	}
	return s.keep(setops.SymmetricDifference(a, b, s.cfg.Parallel))
}

type complementArgs struct {
	ID string `json:"id"`
	boxArgs
}

func (s *Server) handleComplement(args json.RawMessage) (interface{}, error) {
	var a complementArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	return s.keep(setops.Complement(obj, a.box()))
}

type cropArgs struct {
	ID     string `json:"id"`
	Region string `json:"region"`
	rectArgs
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	r := a.rect()
	if a.Region != "" {
		if obj.IsEmpty() {
			return s.keep(object.NewEmpty(), nil)
		}
		b := obj.BBox()
		bounds := image.Rect(b.Kol1, b.Line1, b.LastKl+1, b.LastLn+1)
		if r, err = imaging.NamedRegion(bounds, a.Region); err != nil {
			return nil, err
		}
	}
	if r.Empty() {
		return nil, fmt.Errorf("crop rectangle %v: %w", r, domain.ErrDomainDataInvalid)
	}
	return s.keep(imaging.CropObject(obj, imaging.RectBox(r)))
}

// === Morphology and Labeling Handlers ===

type morphArgs struct {
	ID           string `json:"id"`
	Connectivity int    `json:"connectivity"`
	Steps        int    `json:"steps"`
}

type morphFunc func(*object.Object, domain.Connectivity) (*object.Object, error)

func (s *Server) handleMorph(args json.RawMessage, op morphFunc) (interface{}, error) {
	var a morphArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Steps == 0 {
		a.Steps = 1
	}
	if a.Steps < 0 {
		return nil, fmt.Errorf("steps %d: %w", a.Steps, domain.ErrUnsupported)
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	conn, err := s.connectivity(a.Connectivity, obj)
	if err != nil {
		return nil, err
	}
	cur := object.Assign(obj)
	for i := 0; i < a.Steps; i++ {
		next, err := op(cur, conn)
		object.Free(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return s.keep(cur, nil)
}

type labelArgs struct {
	ID           string `json:"id"`
	Connectivity int    `json:"connectivity"`
	MinLines     *int   `json:"min_lines"`
	MaxCount     *int   `json:"max_count"`
	Overflow     string `json:"overflow"`
}

type labelResult struct {
	Count      int             `json:"count"`
	Truncated  bool            `json:"truncated"`
	Components []ObjectSummary `json:"components"`
}

func (s *Server) labelOptions(a labelArgs, obj *object.Object) (label.Options, error) {
	conn, err := s.connectivity(a.Connectivity, obj)
	if err != nil {
		return label.Options{}, err
	}
	opts := s.cfg.LabelOptions(conn)
	if a.MinLines != nil {
		opts.MinLines = *a.MinLines
	}
	if a.MaxCount != nil {
		opts.MaxCount = *a.MaxCount
	}
	if a.Overflow != "" {
		if opts.Overflow, err = label.ParseOverflowPolicy(a.Overflow); err != nil {
			return label.Options{}, err
		}
	}
	return opts, nil
}

func (s *Server) handleLabel(args json.RawMessage) (interface{}, error) {
	var a labelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	opts, err := s.labelOptions(a, obj)
	if err != nil {
		return nil, err
	}
	res, err := label.Label(obj, opts)
	if err != nil {
		return nil, err
	}
	comps, err := s.keepAll(res.Objects)
	if err != nil {
		return nil, err
	}
	return &labelResult{Count: len(comps), Truncated: res.Truncated, Components: comps}, nil
}

type shapesArgs struct {
	labelArgs
	MinArea   int64   `json:"min_area"`
	Tolerance float64 `json:"tolerance"`
}

func (s *Server) handleShapes(args json.RawMessage) (interface{}, error) {
	var a shapesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Tolerance == 0 {
		a.Tolerance = 0.85
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	opts, err := s.labelOptions(a.labelArgs, obj)
	if err != nil {
		return nil, err
	}
	return detection.DetectShapes(obj, detection.Options{
		Label:     opts,
		MinArea:   a.MinArea,
		Tolerance: a.Tolerance,
	})
}

// === Inspection Handlers ===

type idArgs struct {
	ID string `json:"id"`
}

type infoResult struct {
	ObjectSummary
	Voxel      *domain.VoxelSize `json:"voxel,omitempty"`
	Properties map[string]any    `json:"properties,omitempty"`
}

func (s *Server) info(id string) (*infoResult, error) {
	obj, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	m, err := imaging.Measure(obj)
	if err != nil {
		return nil, err
	}
	res := &infoResult{ObjectSummary: ObjectSummary{ID: id, Measurement: *m}}
	if obj.Kind() == object.Kind3D {
		v := obj.Planes().VoxelSize()
		res.Voxel = &v
	}
	if p := obj.Props(); p != nil {
		res.Properties = p.Snapshot()
	}
	return res, nil
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.info(a.ID)
}

func (s *Server) handleList(json.RawMessage) (interface{}, error) {
	infos := make([]*infoResult, 0, s.store.Len())
	for _, id := range s.store.IDs() {
		res, err := s.info(id)
		if errors.Is(err, ErrUnknownObject) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, res)
	}
	return map[string]interface{}{"count": len(infos), "objects": infos}, nil
}

type intervalsArgs struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Limit     int    `json:"limit"`
}

type spanResult struct {
	Plane int `json:"plane"`
	Line  int `json:"line"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

type intervalsResult struct {
	Direction string       `json:"direction"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated"`
	Intervals []spanResult `json:"intervals"`
}

func (s *Server) handleIntervals(args json.RawMessage) (interface{}, error) {
	var a intervalsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 1000
	}
	dir, err := scan.ParseDirection(a.Direction)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	it, err := scan.NewIntervalScan(obj, scan.WithDirection(dir))
	if err != nil {
		return nil, err
	}

	res := &intervalsResult{Direction: dir.String(), Intervals: []spanResult{}}
	for {
		sp, err := it.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(res.Intervals) == a.Limit {
			res.Truncated = true
			break
		}
		res.Intervals = append(res.Intervals, spanResult{Plane: sp.Plane, Line: sp.Line, Left: sp.Left, Right: sp.Right})
	}
	res.Count = len(res.Intervals)
	return res, nil
}

type greyStatsArgs struct {
	ID       string `json:"id"`
	Weighted bool   `json:"weighted"`
}

type greyStatsResult struct {
	stats.Grey
	Centroid   *stats.Point `json:"centroid,omitempty"`
	MeanColour string       `json:"mean_colour,omitempty"`
}

func (s *Server) handleGreyStats(args json.RawMessage) (interface{}, error) {
	var a greyStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	obj, err := s.store.Get(a.ID)
	if err != nil {
		return nil, err
	}
	g, err := stats.GreyStats(obj)
	if err != nil {
		return nil, err
	}
	res := &greyStatsResult{Grey: g}
	if c, err := stats.Centroid(obj, a.Weighted); err == nil {
		res.Centroid = &c
	}
	if obj.Kind() == object.Kind2D && obj.HasValues() && obj.Values().Type == object.PixelRGBA {
		if res.MeanColour, err = imaging.MeanColour(obj); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type compareResult struct {
	Overlaps    bool     `json:"overlaps"`
	OverlapSize int64    `json:"overlap_size"`
	SizeA       int64    `json:"size_a"`
	SizeB       int64    `json:"size_b"`
	Correlation *float64 `json:"correlation,omitempty"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	a, b, err := s.pair(args)
	if err != nil {
		return nil, err
	}
	overlaps, err := setops.HasIntersection(a, b)
	if err != nil {
		return nil, err
	}
	res := &compareResult{Overlaps: overlaps, SizeA: a.Size(), SizeB: b.Size()}
	if overlaps {
		common, err := setops.Intersection([]*object.Object{a, b}, false)
		if err != nil {
			return nil, err
		}
		res.OverlapSize = common.Size()
		object.Free(common)
	}
	if a.HasValues() && b.HasValues() && a.Kind() == object.Kind2D && b.Kind() == object.Kind2D {
		r, err := stats.Correlation(a, b)
		if err != nil {
			return nil, err
		}
		res.Correlation = finite(r)
	}
	return res, nil
}

// === Persistence and Lifetime Handlers ===

type saveArgs struct {
	IDs  []string `json:"ids"`
	Path string   `json:"path"`
}

func (s *Server) handleSave(args json.RawMessage) (interface{}, error) {
	var a saveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	objs, err := s.store.GetAll(a.IDs)
	if err != nil {
		return nil, err
	}
	if err := codec.SaveFile(a.Path, objs...); err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": a.Path, "count": len(objs)}, nil
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	objs, err := codec.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	sums, err := s.keepAll(objs)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": len(sums), "objects": sums}, nil
}

type freeArgs struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleFree(args json.RawMessage) (interface{}, error) {
	var a freeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	for _, id := range a.IDs {
		if err := s.store.Delete(id); err != nil {
			return nil, err
		}
	}
	return map[string]interface{}{"freed": len(a.IDs), "remaining": s.store.Len()}, nil
}
