package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

const defaultLimit = 5

type Concierge interface {
	HandleMessage(ctx context.Context, phone, text string) (agent.Reply, error)
}

// Notebook records dispatcher-entered facts about clients and drivers.
type Notebook interface {
	AddDriverNote(ctx context.Context, driverID, note, noteType string) error
	AddClientPreference(ctx context.Context, clientID, preference string) error
}

// Server exposes memory search, notes and the concierge as MCP tools over stdio.
type Server struct {
	mcp       *server.MCPServer
	memory    core.Memory
	notebook  Notebook
	concierge Concierge

	in  io.Reader
	out io.Writer
}

func NewServer(memory core.Memory, notebook Notebook, concierge Concierge) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false)),
		memory:    memory,
		notebook:  notebook,
		concierge: concierge,
		in:        os.Stdin,
		out:       os.Stdout,
	}
	s.register()
	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("serving mcp over stdio")
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, s.in, s.out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) register() {
	s.mcp.AddTool(mcpproto.NewTool("search_client_memory",
		mcpproto.WithDescription("Semantic search over one client's conversations, trips and preferences."),
		mcpproto.WithString("client_id", mcpproto.Required(), mcpproto.Description("Client id")),
		mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("What to look for")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum results, default 5")),
	), s.searchClient)

	s.mcp.AddTool(mcpproto.NewTool("search_driver_memory",
		mcpproto.WithDescription("Semantic search over one driver's trips, notes and communications."),
		mcpproto.WithString("driver_id", mcpproto.Required(), mcpproto.Description("Driver id")),
		mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("What to look for")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum results, default 5")),
	), s.searchDriver)

	s.mcp.AddTool(mcpproto.NewTool("client_history",
		mcpproto.WithDescription("A client's memory grouped into conversations, trips and preferences."),
		mcpproto.WithString("client_id", mcpproto.Required(), mcpproto.Description("Client id")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum entries per group")),
	), s.clientHistory)

	s.mcp.AddTool(mcpproto.NewTool("driver_history",
		mcpproto.WithDescription("A driver's memory grouped into trips, notes and communications."),
		mcpproto.WithString("driver_id", mcpproto.Required(), mcpproto.Description("Driver id")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum entries per group")),
	), s.driverHistory)

	s.mcp.AddTool(mcpproto.NewTool("add_driver_note",
		mcpproto.WithDescription("Record a dispatcher note about a driver."),
		mcpproto.WithString("driver_id", mcpproto.Required(), mcpproto.Description("Driver id")),
		mcpproto.WithString("note", mcpproto.Required(), mcpproto.Description("Note text")),
		mcpproto.WithString("note_type", mcpproto.Required(),
			mcpproto.Enum("performance", "availability", "feedback", "communication")),
	), s.addDriverNote)

	s.mcp.AddTool(mcpproto.NewTool("add_client_preference",
		mcpproto.WithDescription("Record a client preference entered by a dispatcher."),
		mcpproto.WithString("client_id", mcpproto.Required(), mcpproto.Description("Client id")),
		mcpproto.WithString("preference", mcpproto.Required(), mcpproto.Description("Preference text")),
	), s.addClientPreference)

	s.mcp.AddTool(mcpproto.NewTool("generate_reply",
		mcpproto.WithDescription("Answer an inbound client message as the concierge and remember the exchange."),
		mcpproto.WithString("phone", mcpproto.Required(), mcpproto.Description("Client phone number")),
		mcpproto.WithString("message", mcpproto.Required(), mcpproto.Description("Inbound message")),
	), s.generateReply)

	s.mcp.AddTool(mcpproto.NewTool("memory_stats",
		mcpproto.WithDescription("Item counts of the client and driver memory indexes."),
	), s.stats)
}

func (s *Server) searchClient(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, query, err := requireTwo(req, "client_id", "query")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.memory.FetchClientContext(ctx, id, query, req.GetInt("limit", defaultLimit)))
}

func (s *Server) searchDriver(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, query, err := requireTwo(req, "driver_id", "query")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.memory.FetchDriverContext(ctx, id, query, req.GetInt("limit", defaultLimit)))
}

func (s *Server) clientHistory(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, err := req.RequireString("client_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.memory.ClientHistory(ctx, id, req.GetInt("limit", 0)))
}

func (s *Server) driverHistory(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, err := req.RequireString("driver_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.memory.DriverHistory(ctx, id, req.GetInt("limit", 0)))
}

func (s *Server) addDriverNote(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, note, err := requireTwo(req, "driver_id", "note")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	if err := s.notebook.AddDriverNote(ctx, id, note, req.GetString("note_type", "")); err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return mcpproto.NewToolResultText("note recorded"), nil
}

func (s *Server) addClientPreference(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, pref, err := requireTwo(req, "client_id", "preference")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	if err := s.notebook.AddClientPreference(ctx, id, pref); err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return mcpproto.NewToolResultText("preference recorded"), nil
}

func (s *Server) generateReply(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	phone, msg, err := requireTwo(req, "phone", "message")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	reply, err := s.concierge.HandleMessage(ctx, phone, msg)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("phone", phone).Msg("generate_reply failed")
		return mcpproto.NewToolResultError(agent.FallbackReply), nil
	}
	return jsonResult(map[string]string{"response": reply.Text, "clientId": reply.Client.ID})
}

func (s *Server) stats(ctx context.Context, _ mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return jsonResult(s.memory.Stats(ctx))
}

func requireTwo(req mcpproto.CallToolRequest, a, b string) (string, string, error) {
	va, err := req.RequireString(a)
	if err != nil {
		return "", "", err
	}
	vb, err := req.RequireString(b)
	if err != nil {
		return "", "", err
	}
	return va, vb, nil
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
