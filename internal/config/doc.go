// Package config loads server settings from built-in defaults, an optional
// TOML file and REGION_MCP_* environment variables, in that order of
// precedence from lowest to highest.
//
// Example file:
//
//	log_level = "debug"
//	connectivity_2d = 4
//	max_components = 500
//	overflow = "fail"
//
//	[voxel]
//	x = 0.5
//	y = 0.5
//	z = 2.0
package config
