package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/config"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/server"
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
			fmt.Printf("%s %s\n", server.ServerName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Printf("%s - MCP server for Bayesian image segmentation diagnostics\n", server.ServerName)
			fmt.Println()
			fmt.Printf("Usage: %s [options]\n", server.ServerName)
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=<dir>     Training images (default %s)\n", config.EnvTrainDir, config.DefaultTrainDir)
			fmt.Printf("  %s=<dir>    Figures and fitted images (default %s)\n", config.EnvOutputDir, config.DefaultOutputDir)
			fmt.Printf("  %s=<dir>       Run log directory (default %s)\n", config.EnvLogDir, config.DefaultLogDir)
			fmt.Printf("  %s=<n>         Parallel diagnostic workers (default: CPU count)\n", config.EnvWorkers)
			fmt.Printf("  %s=debug     Enable debug logging\n", config.EnvLogLevel)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Segment diagnostics MCP server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("train=%s output=%s logs=%s workers=%d", cfg.TrainDir, cfg.OutputDir, cfg.LogDir, cfg.Workers)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
