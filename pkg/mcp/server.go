package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/devices"
)

// Server exposes the device dispatcher as MCP tools
type Server struct {
	logger        *logrus.Logger
	dispatcher    *devices.Dispatcher
	defaultDevice string
	ignoreHidden  bool
	mcpServer     *server.MCPServer
}

// NewServer creates a new MCP server. defaultDevice and ignoreHidden apply
// when a tool call omits them.
func NewServer(logger *logrus.Logger, dispatcher *devices.Dispatcher, defaultDevice string, ignoreHidden bool) *Server {
	mcpServer := server.NewMCPServer(
		"mtpfm",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		logger:        logger,
		dispatcher:    dispatcher,
		defaultDevice: defaultDevice,
		ignoreHidden:  ignoreHidden,
		mcpServer:     mcpServer,
	}

	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

func deviceTypeParam() mcp.ToolOption {
	return mcp.WithString("device_type",
		mcp.Description("Device backend, either \"local\" or \"mtp\""),
		mcp.Enum(string(devices.Local), string(devices.MTP)),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List the entries of a directory on a device"),
		deviceTypeParam(),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Directory to list"),
		),
		mcp.WithBoolean("ignore_hidden",
			mcp.Description("Skip dotfiles"),
		),
	), s.handleListDirectory)

	s.mcpServer.AddTool(mcp.NewTool("delete_files",
		mcp.WithDescription("Recursively delete files and folders on a device"),
		deviceTypeParam(),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Paths to delete"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.handleDeleteFiles)

	s.mcpServer.AddTool(mcp.NewTool("rename_file",
		mcp.WithDescription("Rename or move a file on a device"),
		deviceTypeParam(),
		mcp.WithString("old_path", mcp.Required(), mcp.Description("Current path")),
		mcp.WithString("new_path", mcp.Required(), mcp.Description("New path")),
	), s.handleRenameFile)

	s.mcpServer.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder, including missing parents"),
		deviceTypeParam(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Folder to create")),
	), s.handleCreateFolder)

	s.mcpServer.AddTool(mcp.NewTool("list_storages",
		mcp.WithDescription("List the storages of a device"),
		deviceTypeParam(),
	), s.handleListStorages)

	s.mcpServer.AddTool(mcp.NewTool("file_exists",
		mcp.WithDescription("Check whether a path exists on a device"),
		deviceTypeParam(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to check")),
	), s.handleFileExists)
}

func (s *Server) deviceType(request mcp.CallToolRequest) string {
	return request.GetString("device_type", s.defaultDevice)
}

func (s *Server) handleListDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter error: %v", err)), nil
	}
	ignoreHidden := request.GetBool("ignore_hidden", s.ignoreHidden)
	return s.result(s.dispatcher.List(ctx, s.deviceType(request), path, ignoreHidden))
}

func (s *Server) handleDeleteFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := request.GetStringSlice("paths", nil)
	return s.result(s.dispatcher.Delete(ctx, s.deviceType(request), paths))
}

func (s *Server) handleRenameFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldPath, err := request.RequireString("old_path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("old_path parameter error: %v", err)), nil
	}
	newPath, err := request.RequireString("new_path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("new_path parameter error: %v", err)), nil
	}
	return s.result(s.dispatcher.Rename(ctx, s.deviceType(request), oldPath, newPath))
}

func (s *Server) handleCreateFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter error: %v", err)), nil
	}
	return s.result(s.dispatcher.CreateFolder(ctx, s.deviceType(request), path))
}

func (s *Server) handleListStorages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.dispatcher.StorageList(ctx, s.deviceType(request)))
}

func (s *Server) handleFileExists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter error: %v", err)), nil
	}
	return s.result(s.dispatcher.FileExists(ctx, s.deviceType(request), path))
}

// result renders the envelope as the tool's text output
func (s *Server) result(resp models.Response) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	if !resp.OK() {
		s.logger.Debugf("MCP tool call failed: %s", *resp.Error)
		return mcp.NewToolResultError(string(out)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
