package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/ocr"
	"github.com/ironsheep/region-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("region-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  OCR:        %v\n", ocr.Available)
			return
		case "--help", "-h", "help":
			fmt.Println("region-tools-mcp - MCP server for region (interval domain) analysis")
			fmt.Println()
			fmt.Println("Usage: region-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  REGION_MCP_CONFIG=<path>          TOML configuration file")
			fmt.Println("  REGION_MCP_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println("  REGION_MCP_CONNECTIVITY=4|8|6|18|26  Default connectivity")
			fmt.Println("  REGION_MCP_MAX_COMPONENTS=<n>     Labeling component limit (0 = none)")
			fmt.Println("  REGION_MCP_MIN_LINES=<n>          Drop components spanning fewer lines")
			fmt.Println("  REGION_MCP_OVERFLOW=truncate|fail Labeling overflow policy")
			fmt.Println("  REGION_MCP_PARALLEL=true|false    Parallel symmetric difference")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Region MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Config: %+v", cfg)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		log.Printf("Reading JSON-RPC requests from a terminal; run this server from an MCP client")
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
