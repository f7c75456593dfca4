package server

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/ocr"
)

// callTool runs a tool and decodes its JSON result into a generic map.
func callTool(t *testing.T, s *Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	result, err := s.executeTool(name, raw)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(mustMarshalJSON(result)), &out); err != nil {
		t.Fatalf("%s: decode result: %v", name, err)
	}
	return out
}

func callToolErr(t *testing.T, s *Server, name string, args interface{}) error {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	_, err = s.executeTool(name, raw)
	return err
}

func rect(t *testing.T, s *Server, line1, lastln, kol1, lastkl int) string {
	t.Helper()
	res := callTool(t, s, "region_rect", map[string]int{"line1": line1, "lastln": lastln, "kol1": kol1, "lastkl": lastkl})
	return res["id"].(string)
}

func size(res map[string]interface{}) int {
	return int(res["size"].(float64))
}

// writeGradient writes a 10x10 grey PNG whose pixel (x, y) is x*25.
func writeGradient(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 25)})
		}
	}
	path := filepath.Join(t.TempDir(), "gradient.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestSetAlgebraTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	a := rect(t, s, 0, 4, 0, 4)
	b := rect(t, s, 2, 6, 2, 6)

	tests := []struct {
		tool string
		args interface{}
		want int
	}{
		{"region_union", map[string]interface{}{"ids": []string{a, b}}, 41},
		{"region_intersect", map[string]interface{}{"ids": []string{a, b}}, 9},
		{"region_diff", map[string]string{"a": a, "b": b}, 16},
		{"region_xor", map[string]string{"a": a, "b": b}, 32},
		{"region_complement", map[string]interface{}{"id": a, "line1": 0, "lastln": 9, "kol1": 0, "lastkl": 9}, 75},
		{"region_crop", map[string]interface{}{"id": b, "x1": 0, "y1": 0, "x2": 4, "y2": 4}, 4},
		{"region_crop", map[string]interface{}{"id": b, "region": "top-half"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			if got := size(res); got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
			if res["id"] == "" {
				t.Error("result has no id")
			}
		})
	}
}

func TestMorphologyTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	dot := rect(t, s, 3, 3, 3, 3)
	square := rect(t, s, 0, 4, 0, 4)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
		want int
	}{
		{"dilate 4", "region_dilate", map[string]interface{}{"id": dot, "connectivity": 4}, 5},
		{"dilate default", "region_dilate", map[string]interface{}{"id": dot}, 9},
		{"dilate twice", "region_dilate", map[string]interface{}{"id": dot, "connectivity": 8, "steps": 2}, 25},
		{"erode 4", "region_erode", map[string]interface{}{"id": square, "connectivity": 4}, 9},
		{"erode away", "region_erode", map[string]interface{}{"id": square, "steps": 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := size(callTool(t, s, tt.tool, tt.args)); got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
		})
	}

	if err := callToolErr(t, s, "region_dilate", map[string]interface{}{"id": dot, "connectivity": 5}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("connectivity 5: err = %v", err)
	}
	if err := callToolErr(t, s, "region_erode", map[string]interface{}{"id": dot, "steps": -1}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("negative steps: err = %v", err)
	}
}

func TestToolsSurviveExtremeRegions(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	err := callToolErr(t, s, "region_rect", map[string]int{"line1": math.MinInt, "lastln": math.MaxInt, "kol1": 0, "lastkl": 0})
	if !errors.Is(err, domain.ErrDomainDataInvalid) {
		t.Errorf("uncountable rect: err = %v, want ErrDomainDataInvalid", err)
	}

	tall := rect(t, s, 0, 1<<40, 0, 0)
	if err := callToolErr(t, s, "region_dilate", map[string]interface{}{"id": tall, "connectivity": 4}); !errors.Is(err, domain.ErrAllocFailure) {
		t.Errorf("4-connected dilation of a tall rect: err = %v, want ErrAllocFailure", err)
	}
	dot := rect(t, s, 5, 5, 0, 0)
	if err := callToolErr(t, s, "region_diff", map[string]interface{}{"a": tall, "b": dot}); !errors.Is(err, domain.ErrAllocFailure) {
		t.Errorf("difference of a tall rect: err = %v, want ErrAllocFailure", err)
	}

	// The server keeps serving after a refused operation.
	grown := callTool(t, s, "region_dilate", map[string]interface{}{"id": tall, "connectivity": 8})
	if got, want := int64(grown["size"].(float64)), int64(1<<40+3)*3; got != want {
		t.Errorf("8-connected dilation size = %d, want %d", got, want)
	}
	if got := s.store.Len(); got != 3 {
		t.Errorf("store holds %d objects, want 3", got)
	}
}

func TestLabelTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	big := rect(t, s, 0, 4, 0, 4)
	bar := rect(t, s, 0, 0, 10, 19)
	both := callTool(t, s, "region_union", map[string]interface{}{"ids": []string{big, bar}})["id"].(string)

	res := callTool(t, s, "region_label", map[string]interface{}{"id": both})
	if res["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", res["count"])
	}
	comps := res["components"].([]interface{})
	first := comps[0].(map[string]interface{})
	if size(first) != 25 {
		t.Errorf("first component size = %d, want 25", size(first))
	}

	res = callTool(t, s, "region_label", map[string]interface{}{"id": both, "min_lines": 2})
	if res["count"].(float64) != 1 {
		t.Errorf("min_lines 2: count = %v, want 1", res["count"])
	}

	res = callTool(t, s, "region_label", map[string]interface{}{"id": both, "max_count": 1})
	if res["count"].(float64) != 1 || res["truncated"] != true {
		t.Errorf("max_count 1: count=%v truncated=%v", res["count"], res["truncated"])
	}

	before := s.store.Len()
	err := callToolErr(t, s, "region_label", map[string]interface{}{"id": both, "max_count": 1, "overflow": "fail"})
	if !errors.Is(err, domain.ErrTooManyComponents) {
		t.Errorf("overflow fail: err = %v", err)
	}
	if s.store.Len() != before {
		t.Errorf("failed labeling stored %d objects", s.store.Len()-before)
	}

	shapes := callTool(t, s, "region_shapes", map[string]interface{}{"id": both})
	if shapes["count"].(float64) != 2 {
		t.Fatalf("shapes count = %v, want 2", shapes["count"])
	}
	list := shapes["shapes"].([]interface{})
	if kind := list[0].(map[string]interface{})["kind"]; kind != "rectangle" {
		t.Errorf("largest shape kind = %v, want rectangle", kind)
	}
	if kind := list[1].(map[string]interface{})["kind"]; kind != "line" {
		t.Errorf("bar kind = %v, want line", kind)
	}
}

func TestInspectionTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	a := rect(t, s, 0, 4, 0, 4)
	b := rect(t, s, 2, 6, 2, 6)
	u := callTool(t, s, "region_union", map[string]interface{}{"ids": []string{a, b}})["id"].(string)

	info := callTool(t, s, "region_info", map[string]string{"id": u})
	if info["kind"] != "2d" || size(info) != 41 || info["id"] != u {
		t.Errorf("info = %v", info)
	}

	ivs := callTool(t, s, "region_intervals", map[string]interface{}{"id": u})
	if ivs["count"].(float64) != 7 || ivs["truncated"] != false {
		t.Errorf("intervals: count=%v truncated=%v", ivs["count"], ivs["truncated"])
	}
	firstIv := ivs["intervals"].([]interface{})[0].(map[string]interface{})
	if firstIv["line"].(float64) != 0 || firstIv["left"].(float64) != 0 || firstIv["right"].(float64) != 4 {
		t.Errorf("first interval = %v", firstIv)
	}

	ivs = callTool(t, s, "region_intervals", map[string]interface{}{"id": u, "direction": "DLDC", "limit": 2})
	if ivs["count"].(float64) != 2 || ivs["truncated"] != true || ivs["direction"] != "DLDC" {
		t.Errorf("limited intervals = %v", ivs)
	}
	firstIv = ivs["intervals"].([]interface{})[0].(map[string]interface{})
	if firstIv["line"].(float64) != 6 {
		t.Errorf("DLDC should start at the last line, got %v", firstIv["line"])
	}

	cmp := callTool(t, s, "region_compare", map[string]string{"a": a, "b": b})
	if cmp["overlaps"] != true || cmp["overlap_size"].(float64) != 9 {
		t.Errorf("compare = %v", cmp)
	}
	if _, ok := cmp["correlation"]; ok {
		t.Error("regions without values should report no correlation")
	}

	list := callTool(t, s, "region_list", map[string]interface{}{})
	if list["count"].(float64) != 3 {
		t.Errorf("list count = %v, want 3", list["count"])
	}

	freed := callTool(t, s, "region_free", map[string]interface{}{"ids": []string{a, b}})
	if freed["remaining"].(float64) != 1 {
		t.Errorf("remaining = %v, want 1", freed["remaining"])
	}
	if err := callToolErr(t, s, "region_info", map[string]string{"id": a}); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("info of freed region: err = %v", err)
	}
	// The union does not depend on its freed inputs.
	if got := size(callTool(t, s, "region_info", map[string]string{"id": u})); got != 41 {
		t.Errorf("union size after freeing inputs = %d", got)
	}
}

func TestImageTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()
	path := writeGradient(t)

	info := callTool(t, s, "region_image_info", map[string]string{"path": path})
	if info["width"].(float64) != 10 || info["height"].(float64) != 10 {
		t.Errorf("image info = %v", info)
	}

	img := callTool(t, s, "region_from_image", map[string]string{"path": path})
	if size(img) != 100 || img["has_values"] != true {
		t.Fatalf("from_image = %v", img)
	}
	id := img["id"].(string)
	props := callTool(t, s, "region_info", map[string]string{"id": id})["properties"].(map[string]interface{})
	if props["source"] != path {
		t.Errorf("source property = %v", props["source"])
	}

	bright := callTool(t, s, "region_threshold", map[string]interface{}{"id": id, "level": 90})
	if size(bright) != 60 {
		t.Errorf("threshold size = %d, want 60", size(bright))
	}
	dark := callTool(t, s, "region_threshold", map[string]interface{}{"id": id, "level": 90, "mode": "low"})
	if size(dark) != 40 {
		t.Errorf("low threshold size = %d, want 40", size(dark))
	}

	stats := callTool(t, s, "region_grey_stats", map[string]string{"id": bright["id"].(string)})
	if stats["min"].(float64) != 100 || stats["max"].(float64) != 225 || stats["count"].(float64) != 60 {
		t.Errorf("grey stats = %v", stats)
	}
	if _, ok := stats["centroid"]; !ok {
		t.Error("grey stats should include the centroid")
	}

	mask := callTool(t, s, "region_mask", map[string]interface{}{"path": path, "level": 90})
	if size(mask) != 60 || mask["has_values"] != false {
		t.Errorf("mask = %v", mask)
	}
	cmp := callTool(t, s, "region_compare", map[string]string{"a": bright["id"].(string), "b": mask["id"].(string)})
	if cmp["overlap_size"].(float64) != 60 {
		t.Errorf("threshold and mask should coincide: %v", cmp)
	}

	quarter := callTool(t, s, "region_from_image", map[string]string{"path": path, "region": "top-left"})
	if size(quarter) != 25 {
		t.Errorf("top-left size = %d, want 25", size(quarter))
	}

	stack := callTool(t, s, "region_stack", map[string]interface{}{"paths": []string{path, path}, "level": 90})
	if stack["kind"] != "3d" || size(stack) != 120 {
		t.Errorf("stack = %v", stack)
	}

	if err := callToolErr(t, s, "region_mask", map[string]interface{}{"path": path, "level": 300}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("level 300: err = %v", err)
	}
}

func TestThresholdWithoutValues(t *testing.T) {
	s := New(config.Default())
	defer s.Close()
	id := rect(t, s, 0, 1, 0, 1)
	if err := callToolErr(t, s, "region_threshold", map[string]interface{}{"id": id, "level": 1}); !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
	if err := callToolErr(t, s, "region_threshold", map[string]interface{}{"id": id, "mode": "sideways"}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("bad mode: err = %v", err)
	}
}

func TestPolygonTool(t *testing.T) {
	s := New(config.Default())
	defer s.Close()
	res := callTool(t, s, "region_polygon", map[string]interface{}{
		"points": []map[string]int{{"x": 0, "y": 0}, {"x": 4, "y": 0}, {"x": 4, "y": 4}, {"x": 0, "y": 4}},
	})
	if size(res) == 0 {
		t.Error("polygon region is empty")
	}
	if err := callToolErr(t, s, "region_polygon", map[string]interface{}{"points": []map[string]int{{"x": 0, "y": 0}}}); !errors.Is(err, domain.ErrDomainDataInvalid) {
		t.Errorf("one vertex: err = %v", err)
	}
}

func TestSaveAndLoadTools(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	a := rect(t, s, 0, 4, 0, 4)
	b := rect(t, s, 10, 12, 0, 1)
	path := filepath.Join(t.TempDir(), "regions.msgpack")

	saved := callTool(t, s, "region_save", map[string]interface{}{"ids": []string{a, b}, "path": path})
	if saved["count"].(float64) != 2 {
		t.Errorf("saved count = %v", saved["count"])
	}

	loaded := callTool(t, s, "region_load", map[string]string{"path": path})
	objs := loaded["objects"].([]interface{})
	if len(objs) != 2 {
		t.Fatalf("loaded %d objects, want 2", len(objs))
	}
	if got := size(objs[0].(map[string]interface{})); got != 25 {
		t.Errorf("first loaded size = %d, want 25", got)
	}
	if got := size(objs[1].(map[string]interface{})); got != 6 {
		t.Errorf("second loaded size = %d, want 6", got)
	}
	if s.store.Len() != 4 {
		t.Errorf("store holds %d objects, want 4", s.store.Len())
	}
}

func TestTextMaskTool(t *testing.T) {
	if ocr.Available {
		t.Skip("Tesseract build: covered by the ocr package")
	}
	s := New(config.Default())
	defer s.Close()
	err := callToolErr(t, s, "region_text_mask", map[string]string{"path": writeGradient(t)})
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}
