// Package session owns the MCP channel to the Firecrawl server subprocess:
// it spawns the child, performs the protocol handshake, and exposes the
// call and catalog operations every other component goes through.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/pimcabanlit/firecrawl-cli/internal/types"
	"github.com/pimcabanlit/firecrawl-cli/internal/utils"
)

// ErrNotConnected indicates an operation was attempted before Connect
// succeeded or after Close.
var ErrNotConnected = errors.New("session is not connected")

const (
	clientName = "firecrawl-cli"

	// APIKeyVariableName gates a startup warning only; the value itself is
	// forwarded to the child through the environment allow-list.
	APIKeyVariableName = "FIRECRAWL_API_KEY"

	defaultServerCommand = "node"

	methodNotFoundFragment = "method not found"
)

// DefaultEnvironmentAllowList names the variables forwarded to the child
// process. The child never inherits the full parent environment.
var DefaultEnvironmentAllowList = []string{
	APIKeyVariableName,
	"FIRECRAWL_API_URL",
	"PATH",
	"HOME",
	"NODE_OPTIONS",
}

// Options configures how the server subprocess is launched.
type Options struct {
	// Command runs the server script; defaults to node.
	Command string
	// Args precede the script path on the command line.
	Args []string
	// Script is the explicit server script path. When empty the candidate
	// locations are probed instead.
	Script string
	// ScriptCandidates overrides the probed locations.
	ScriptCandidates []string
	// EnvironmentAllowList overrides the variable names forwarded to the
	// child process.
	EnvironmentAllowList []string
	// Logger receives connection lifecycle messages; nil means silent.
	Logger *zap.Logger
}

// Manager establishes and owns a single MCP session over a subprocess
// channel. One request is in flight at a time; the manager holds the channel
// exclusively between Connect and Close.
type Manager struct {
	options Options
	logger  *zap.Logger
	session *mcp.ClientSession
}

// NewManager constructs a Manager from the provided options.
func NewManager(options Options) *Manager {
	if options.Command == "" {
		options.Command = defaultServerCommand
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{options: options, logger: logger}
}

// Connect locates the server script, spawns the subprocess, and performs the
// MCP initialize handshake. A missing API key variable produces a warning
// but does not block the connection.
func (manager *Manager) Connect(ctx context.Context) error {
	if manager.session != nil {
		return nil
	}

	scriptPath := manager.options.Script
	if scriptPath == "" {
		locatedPath, locateErr := LocateServerScript(manager.options.ScriptCandidates)
		if locateErr != nil {
			return locateErr
		}
		scriptPath = locatedPath
	}

	if os.Getenv(APIKeyVariableName) == "" {
		manager.logger.Warn(APIKeyVariableName + " environment variable not set; the server may reject requests")
	}

	commandArguments := append(append([]string{}, manager.options.Args...), scriptPath)
	serverCommand := exec.CommandContext(ctx, manager.options.Command, commandArguments...)
	serverCommand.Env = buildEnvironment(manager.options.EnvironmentAllowList)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: utils.GetApplicationVersion(),
	}, nil)

	clientSession, connectErr := client.Connect(ctx, &mcp.CommandTransport{Command: serverCommand}, nil)
	if connectErr != nil {
		return fmt.Errorf("connect to MCP server %s: %w", scriptPath, connectErr)
	}
	manager.session = clientSession
	manager.logger.Info("connected to Firecrawl MCP server", zap.String("script", scriptPath))
	return nil
}

// Close releases the subprocess channel. It is safe to call repeatedly and
// after a failed Connect.
func (manager *Manager) Close() error {
	if manager.session == nil {
		return nil
	}
	closeErr := manager.session.Close()
	manager.session = nil
	manager.logger.Info("disconnected from Firecrawl MCP server")
	return closeErr
}

// ListTools returns the tool catalog advertised by the server.
func (manager *Manager) ListTools(ctx context.Context) ([]types.ToolDescriptor, error) {
	if manager.session == nil {
		return nil, ErrNotConnected
	}
	toolsResult, listErr := manager.session.ListTools(ctx, nil)
	if listErr != nil {
		return nil, fmt.Errorf("list tools: %w", listErr)
	}
	if toolsResult == nil {
		return nil, nil
	}
	descriptors := make([]types.ToolDescriptor, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		if tool == nil || strings.TrimSpace(tool.Name) == "" {
			continue
		}
		descriptors = append(descriptors, types.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	return descriptors, nil
}

// ListResources returns the resource catalog advertised by the server.
// Servers that omit the resources capability answer with a method-not-found
// error; that answer is treated as an empty catalog rather than a failure.
func (manager *Manager) ListResources(ctx context.Context) ([]types.ResourceDescriptor, error) {
	if manager.session == nil {
		return nil, ErrNotConnected
	}
	resourcesResult, listErr := manager.session.ListResources(ctx, nil)
	if listErr != nil {
		if IsMethodNotFound(listErr) {
			manager.logger.Info("resources are not supported by this MCP server")
			return nil, nil
		}
		return nil, fmt.Errorf("list resources: %w", listErr)
	}
	if resourcesResult == nil {
		return nil, nil
	}
	descriptors := make([]types.ResourceDescriptor, 0, len(resourcesResult.Resources))
	for _, resource := range resourcesResult.Resources {
		if resource == nil {
			continue
		}
		descriptors = append(descriptors, types.ResourceDescriptor{
			URI:      resource.URI,
			Name:     resource.Name,
			MIMEType: resource.MIMEType,
		})
	}
	return descriptors, nil
}

// CallTool invokes a named remote tool with JSON-shaped arguments and
// returns the raw result.
func (manager *Manager) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	if manager.session == nil {
		return nil, ErrNotConnected
	}
	callResult, callErr := manager.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
	if callErr != nil {
		return nil, fmt.Errorf("call tool %s: %w", toolName, callErr)
	}
	return callResult, nil
}

// IsMethodNotFound reports whether the error is the JSON-RPC answer for an
// unimplemented method.
func IsMethodNotFound(err error) bool {
	if err == nil {
		return false
	}
	errorText := strings.ToLower(err.Error())
	return strings.Contains(errorText, methodNotFoundFragment) || strings.Contains(errorText, "-32601")
}

// buildEnvironment assembles the child environment from the allow-listed
// variable names, skipping names unset in the parent.
func buildEnvironment(allowList []string) []string {
	if len(allowList) == 0 {
		allowList = DefaultEnvironmentAllowList
	}
	environment := make([]string, 0, len(allowList))
	for _, variableName := range allowList {
		if variableValue, isSet := os.LookupEnv(variableName); isSet {
			environment = append(environment, variableName+"="+variableValue)
		}
	}
	return environment
}
