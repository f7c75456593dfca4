// Package server implements the MCP (Model Context Protocol) server for region tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the region library
// (interval domains, set algebra, morphology and labeling) through the MCP
// protocol.
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
// # Regions and IDs
//
// Every tool that creates a region stores it in an ObjectStore and returns
// its id (a UUID) together with a summary: kind, size, bounding box and
// interval count. Later calls refer to regions by id. The store holds one
// link per region; region_free drops it, and every remaining region is
// released when the server stops. Regions derived from a freed region keep
// their own links to any shared values.
//
// # Available Tools
//
// Sources:
//   - region_image_info: Image dimensions and format
//   - region_from_image: Region over an image, carrying its pixels
//   - region_mask: Region of pixels at or above a grey level
//   - region_threshold, region_colour_threshold: Value selection
//   - region_rect, region_polygon: Geometric regions
//   - region_stack: Volume from image slices
//   - region_text_mask: Region covering OCR word boxes
//
// Set Algebra:
//   - region_union, region_intersect, region_diff, region_xor
//   - region_complement, region_crop
//
// Morphology and Labeling:
//   - region_dilate, region_erode
//   - region_label: Connected components
//   - region_shapes: Component shape classification
//
// Inspection:
//   - region_info, region_list, region_intervals
//   - region_grey_stats, region_compare
//
// Persistence and Lifetime:
//   - region_save, region_load, region_free
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
