package session

import (
	"errors"
	"fmt"
	"os"
)

// ErrServerNotFound indicates no Firecrawl MCP server script exists at any
// candidate location. This is the one unrecoverable startup failure.
var ErrServerNotFound = errors.New("firecrawl MCP server script not found")

// DefaultScriptCandidates lists the locations probed for the server script
// when no explicit path is configured.
var DefaultScriptCandidates = []string{
	"./firecrawl/apps/mcp-server/dist/index.js",
	"../firecrawl/apps/mcp-server/dist/index.js",
	"./dist/index.js",
}

// LocateServerScript returns the first candidate path that exists on disk.
func LocateServerScript(candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultScriptCandidates
	}
	for _, candidatePath := range candidates {
		fileInformation, statErr := os.Stat(candidatePath)
		if statErr == nil && !fileInformation.IsDir() {
			return candidatePath, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrServerNotFound, candidates)
}
