// chronograph-mcp serves the bitemporal document-graph store over MCP
// (spec.md §6): one stdio server exposing add_document, search,
// explore_graph, map_graph, and the rest of the tool surface registered
// by internal/rpc.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/chronograph/internal/config"
	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/facade"
	"github.com/vthunder/chronograph/internal/logging"
	"github.com/vthunder/chronograph/internal/rpc"
	"github.com/vthunder/chronograph/internal/store"
)

func main() {
	// Try executable's parent dir (repo root), then exe dir, then cwd.
	envPaths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		envPaths = append([]string{
			filepath.Join(filepath.Dir(exeDir), ".env"),
			filepath.Join(exeDir, ".env"),
		}, envPaths...)
	}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	configPath := os.Getenv("CHRONOGRAPH_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronograph-mcp: load config: %v\n", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronograph-mcp: open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	embedder := selectEmbedder(cfg)
	f := facade.New(db, embedder)

	s := server.NewMCPServer(
		"chronograph-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	rpc.Register(s, f)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "chronograph-mcp: server error: %v\n", err)
		os.Exit(1)
	}
}

// selectEmbedder picks an HTTP-backed embedding provider, matching the
// way the teacher wires an Ollama client with baseURL/model defaults.
// CHRONOGRAPH_EMBEDDING_DISABLE opts into the deterministic hash
// provider instead, for environments with no embedding backend.
func selectEmbedder(cfg config.Config) embedding.Provider {
	if os.Getenv("CHRONOGRAPH_EMBEDDING_DISABLE") != "" {
		logging.Info("embedding", "using deterministic hash embedder (CHRONOGRAPH_EMBEDDING_DISABLE set)")
		return embedding.NewDeterministicHasher()
	}
	return embedding.NewHTTPClient(cfg.EmbeddingURL, cfg.EmbeddingModel)
}
