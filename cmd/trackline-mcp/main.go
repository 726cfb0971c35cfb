// Command trackline-mcp exposes session data to MCP clients over stdio.
// It reads either the local sqlite state database or a remote Trackline
// server's REST API (typically across a tailnet).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/mcp"
	"github.com/claude/trackline/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	dbPath := flag.String("db", "trackline.db", "path to the sqlite state database (local mode)")
	remoteURL := flag.String("url", "", "base URL of a running server (remote mode, e.g. http://trackline:80)")
	apiKey := flag.String("api-key", "", "API key for remote mode (or TRACKLINE_AUTH_API_KEY)")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *remoteURL != "" {
		key := *apiKey
		if key == "" {
			key = os.Getenv("TRACKLINE_AUTH_API_KEY")
		}
		ds = mcp.NewHTTPClient(*remoteURL, key)
		log.Info("mcp remote mode", "url", *remoteURL)
	} else {
		store, err := storage.OpenSQLite(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open state db: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		eng, err := engine.New(context.Background(), store, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load state: %v\n", err)
			os.Exit(1)
		}
		ds = mcp.Local{Engine: eng}
		log.Info("mcp local mode", "db", *dbPath)
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server: %v\n", err)
		os.Exit(1)
	}
}
