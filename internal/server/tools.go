package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func idListProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var connectivityProp = map[string]interface{}{
	"type":        "integer",
	"enum":        []int{4, 8, 6, 18, 26},
	"description": "4 or 8 for planar regions, 6, 18 or 26 for volumes. Defaults to the configured connectivity",
}

var regionProp = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
	"description": "Named part of the image or region bounding box",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sources
		{
			Name:        "region_image_info",
			Description: "Load an image file and return its dimensions, format and colour depth.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "region_from_image",
			Description: "Create a region covering an image (or part of it) that carries the image's pixels as values. Pixel (x, y) becomes line y, column x. Returns the new region's id.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":   stringProp("Absolute path to the image file"),
				"region": regionProp,
				"x1":     intProp("Left edge X coordinate of an optional crop (0-based)"),
				"y1":     intProp("Top edge Y coordinate of an optional crop (0-based)"),
				"x2":     intProp("Right edge X coordinate of an optional crop (exclusive)"),
				"y2":     intProp("Bottom edge Y coordinate of an optional crop (exclusive)"),
				"blur":   numberProp("Gaussian blur radius applied first. Default 0 (none)"),
				"colour": boolProp("Keep RGBA values instead of grey. Default false"),
			}, "path"),
		},
		{
			Name:        "region_mask",
			Description: "Create a region of the image pixels whose grey level is at or above a level, without values.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":  stringProp("Absolute path to the image file"),
				"level": intProp("Grey level 0-255"),
			}, "path", "level"),
		},
		{
			Name:        "region_threshold",
			Description: "Keep the part of a region whose values are on one side of a level. The result shares the input's values.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":    stringProp("Region id"),
				"level": numberProp("Threshold level"),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"high", "low"},
					"description": "high keeps values >= level, low keeps values < level. Default high",
				},
			}, "id", "level"),
		},
		{
			Name:        "region_colour_threshold",
			Description: "Keep the pixels of a colour region within a Lab colour distance of a target colour.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":           stringProp("Region id (created with colour=true)"),
				"colour":       stringProp("Target colour as #RRGGBB"),
				"max_distance": numberProp("Maximum Lab distance (0 identical, about 1 black to white). Default 0.1"),
			}, "id", "colour"),
		},
		{
			Name:        "region_rect",
			Description: "Create a rectangular region. Bounds are inclusive.",
			InputSchema: objectSchema(map[string]interface{}{
				"line1":  intProp("First line"),
				"lastln": intProp("Last line"),
				"kol1":   intProp("First column"),
				"lastkl": intProp("Last column"),
			}, "line1", "lastln", "kol1", "lastkl"),
		},
		{
			Name:        "region_polygon",
			Description: "Create a region by filling a closed polygon (even-odd rule, pixel centres).",
			InputSchema: objectSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type": "array",
					"items": objectSchema(map[string]interface{}{
						"x": intProp("X coordinate"),
						"y": intProp("Y coordinate"),
					}, "x", "y"),
					"description": "Polygon vertices in order (at least 3)",
				},
			}, "points"),
		},
		{
			Name:        "region_stack",
			Description: "Create a volume from a stack of image slices, one plane per image, keeping pixels at or above a grey level.",
			InputSchema: objectSchema(map[string]interface{}{
				"paths": idListProp("Absolute paths of the slices, first plane first"),
				"level": intProp("Grey level 0-255"),
				"voxel": objectSchema(map[string]interface{}{
					"x": numberProp("Column spacing"),
					"y": numberProp("Line spacing"),
					"z": numberProp("Plane spacing"),
				}),
			}, "paths", "level"),
		},
		{
			Name:        "region_text_mask",
			Description: "Run OCR on an image and create a region covering the recognized words.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":           stringProp("Absolute path to the image file"),
				"language":       stringProp("Tesseract language code. Default eng"),
				"min_confidence": numberProp("Minimum word confidence (0.0 to 1.0). Default 0"),
				"pad":            intProp("Pixels added around every word box. Default 0"),
			}, "path"),
		},

		// Set Algebra
		{
			Name:        "region_union",
			Description: "Create the union of two or more regions of the same kind.",
			InputSchema: objectSchema(map[string]interface{}{
				"ids":             idListProp("Region ids"),
				"transfer_values": boolProp("Average the inputs' values into the result. Default false"),
			}, "ids"),
		},
		{
			Name:        "region_intersect",
			Description: "Create the intersection of two or more regions of the same kind.",
			InputSchema: objectSchema(map[string]interface{}{
				"ids":             idListProp("Region ids"),
				"transfer_values": boolProp("Share the first input's values. Default false"),
			}, "ids"),
		},
		{
			Name:        "region_diff",
			Description: "Create the pixels of region a that are not in region b. The result shares a's values.",
			InputSchema: objectSchema(map[string]interface{}{
				"a": stringProp("Region id to subtract from"),
				"b": stringProp("Region id to subtract"),
			}, "a", "b"),
		},
		{
			Name:        "region_xor",
			Description: "Create the pixels in exactly one of two regions.",
			InputSchema: objectSchema(map[string]interface{}{
				"a": stringProp("First region id"),
				"b": stringProp("Second region id"),
			}, "a", "b"),
		},
		{
			Name:        "region_complement",
			Description: "Create the pixels of a box that are not in a planar region.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":     stringProp("Region id"),
				"line1":  intProp("First line of the box"),
				"lastln": intProp("Last line of the box"),
				"kol1":   intProp("First column of the box"),
				"lastkl": intProp("Last column of the box"),
			}, "id", "line1", "lastln", "kol1", "lastkl"),
		},
		{
			Name:        "region_crop",
			Description: "Create the part of a planar region inside a rectangle or a named part of its bounding box. The result shares the input's values.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":     stringProp("Region id"),
				"region": regionProp,
				"x1":     intProp("Left edge (inclusive)"),
				"y1":     intProp("Top edge (inclusive)"),
				"x2":     intProp("Right edge (exclusive)"),
				"y2":     intProp("Bottom edge (exclusive)"),
			}, "id"),
		},

		// Morphology and Labeling
		{
			Name:        "region_dilate",
			Description: "Grow a region by one or more steps of the given connectivity.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":           stringProp("Region id"),
				"connectivity": connectivityProp,
				"steps":        intProp("Number of steps. Default 1"),
			}, "id"),
		},
		{
			Name:        "region_erode",
			Description: "Shrink a region by one or more steps of the given connectivity.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":           stringProp("Region id"),
				"connectivity": connectivityProp,
				"steps":        intProp("Number of steps. Default 1"),
			}, "id"),
		},
		{
			Name:        "region_label",
			Description: "Split a region into its connected components. Each component is stored as a new region sharing the input's values.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":           stringProp("Region id"),
				"connectivity": connectivityProp,
				"min_lines":    intProp("Drop components spanning fewer lines. Defaults to the configured value"),
				"max_count":    intProp("Maximum number of components (0 = no limit). Defaults to the configured value"),
				"overflow": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"truncate", "fail"},
					"description": "What to do when more than max_count components are found",
				},
			}, "id"),
		},
		{
			Name:        "region_shapes",
			Description: "Classify the connected components of a planar region as rectangles, circles, lines or irregular shapes.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":           stringProp("Region id"),
				"connectivity": connectivityProp,
				"min_lines":    intProp("Drop components spanning fewer lines"),
				"max_count":    intProp("Maximum number of components"),
				"min_area":     intProp("Drop components with fewer pixels. Default 0"),
				"tolerance":    numberProp("Score needed to call a component a rectangle or circle (0.0 to 1.0). Default 0.85"),
			}, "id"),
		},

		// Inspection
		{
			Name:        "region_info",
			Description: "Describe a region: kind, size, bounding box, interval, line and plane counts, properties.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": stringProp("Region id"),
			}, "id"),
		},
		{
			Name:        "region_list",
			Description: "Describe every stored region.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "region_intervals",
			Description: "List the intervals of a region in raster order.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": stringProp("Region id"),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"ILIC", "ILDC", "DLIC", "DLDC"},
					"description": "Line and column order (I = increasing, D = decreasing). Default ILIC",
				},
				"limit": intProp("Maximum number of intervals returned. Default 1000"),
			}, "id"),
		},
		{
			Name:        "region_grey_stats",
			Description: "Summarize the values of a region: count, min, max, mean, standard deviation, median, centroid and, for colour regions, the mean colour.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":       stringProp("Region id"),
				"weighted": boolProp("Weight the centroid by the values. Default false"),
			}, "id"),
		},
		{
			Name:        "region_compare",
			Description: "Compare two regions: overlap, sizes and, for planar regions with values, the correlation of their values over the overlap.",
			InputSchema: objectSchema(map[string]interface{}{
				"a": stringProp("First region id"),
				"b": stringProp("Second region id"),
			}, "a", "b"),
		},

		// Persistence and Lifetime
		{
			Name:        "region_save",
			Description: "Write regions to a file in MessagePack form.",
			InputSchema: objectSchema(map[string]interface{}{
				"ids":  idListProp("Region ids"),
				"path": stringProp("Absolute path of the file to write"),
			}, "ids", "path"),
		},
		{
			Name:        "region_load",
			Description: "Read every region from a file written by region_save and store them.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Absolute path of the file to read"),
			}, "path"),
		},
		{
			Name:        "region_free",
			Description: "Release stored regions. Regions derived from them stay valid.",
			InputSchema: objectSchema(map[string]interface{}{
				"ids": idListProp("Region ids"),
			}, "ids"),
		},
	}
}
