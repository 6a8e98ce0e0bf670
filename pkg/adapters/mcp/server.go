// Package mcp exposes a host.Manager as Model Context Protocol tools, so an
// agent can inspect and drive the hosted machines.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/internal/presentation/graph"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/host"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MachinesURI is the resource listing every machine snapshot.
const MachinesURI = "vsm://machines"

// MachineArgs names the machine a tool acts on.
type MachineArgs struct {
	Machine string `json:"machine"`
}

// TriggerArgs selects a transition. Exactly one of Transition, Label or
// State must be set.
type TriggerArgs struct {
	Machine    string `json:"machine"`
	Transition string `json:"transition,omitempty"`
	Label      string `json:"label,omitempty"`
	State      string `json:"state,omitempty"`
}

// ForceArgs names the state to enter.
type ForceArgs struct {
	Machine string `json:"machine"`
	State   string `json:"state"`
}

// ListResponse is the result of list_machines.
type ListResponse struct {
	Machines []domain.Snapshot `json:"machines" jsonschema_description:"Snapshot of every hosted machine"`
}

// TriggerResponse reports whether a trigger fired and where the machine
// ended up.
type TriggerResponse struct {
	Triggered bool            `json:"triggered" jsonschema_description:"True when a transition fired"`
	Snapshot  domain.Snapshot `json:"snapshot" jsonschema_description:"Machine position after the call"`
}

// ActionResponse is TriggerResponse for the control tools.
type ActionResponse struct {
	Accepted bool            `json:"accepted" jsonschema_description:"True when the machine accepted the request"`
	Snapshot domain.Snapshot `json:"snapshot" jsonschema_description:"Machine position after the call"`
}

// Server wraps a host.Manager and exposes it as an MCP server.
type Server struct {
	manager   *host.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls and transports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server over mgr.
func NewServer(mgr *host.Manager, opts ...Option) *Server {
	s := &Server{
		manager: mgr,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("vsm-mcp", strings.TrimSpace(vsm.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for custom transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves newline-delimited JSON-RPC on in and out until ctx is
// done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server listening (stdio)")
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL(addr)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (s *Server) registerTools() {
	machine := mcp.WithString("machine", mcp.Required(), mcp.Description("Name of the hosted machine"))

	s.mcpServer.AddTool(mcp.NewTool("list_machines",
		mcp.WithDescription("List every hosted machine with its current position."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("snapshot",
		mcp.WithDescription("Get the position of one machine."),
		machine,
		mcp.WithOutputSchema[domain.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("trigger",
		mcp.WithDescription("Trigger a transition by ID, by label or by target state. Set exactly one of them."),
		machine,
		mcp.WithString("transition", mcp.Description("Transition ID")),
		mcp.WithString("label", mcp.Description("Transition label; transitions leaving the current state win over any-state ones")),
		mcp.WithString("state", mcp.Description("Target state ID")),
		mcp.WithOutputSchema[TriggerResponse](),
	), mcp.NewStructuredToolHandler(s.handleTrigger))

	s.mcpServer.AddTool(mcp.NewTool("force",
		mcp.WithDescription("Enter a state directly, without exiting the current one."),
		machine,
		mcp.WithString("state", mcp.Required(), mcp.Description("State ID to enter")),
		mcp.WithOutputSchema[ActionResponse](),
	), mcp.NewStructuredToolHandler(s.handleForce))

	for _, c := range []struct {
		name, description string
		fn                func(*vsm.Machine) bool
	}{
		{"pause", "Pause a machine. Updates and triggers are ignored until resumed.", func(m *vsm.Machine) bool { m.Pause(); return true }},
		{"resume", "Resume a paused machine.", func(m *vsm.Machine) bool { m.Resume(); return true }},
		{"restart", "Abandon any transition and enter the entry state.", func(m *vsm.Machine) bool { return m.Restart() }},
	} {
		s.mcpServer.AddTool(mcp.NewTool(c.name,
			mcp.WithDescription(c.description),
			machine,
			mcp.WithOutputSchema[ActionResponse](),
		), mcp.NewStructuredToolHandler(s.control(c.name, c.fn)))
	}

	s.mcpServer.AddTool(mcp.NewTool("graph",
		mcp.WithDescription("Get the machine graph as a Mermaid diagram with the current position highlighted."),
		machine,
	), s.handleGraph)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ListResponse, error) {
	return ListResponse{Machines: s.manager.Snapshots()}, nil
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args MachineArgs) (domain.Snapshot, error) {
	return s.manager.Snapshot(args.Machine)
}

func (s *Server) handleTrigger(ctx context.Context, request mcp.CallToolRequest, args TriggerArgs) (TriggerResponse, error) {
	set := 0
	for _, v := range []string{args.Transition, args.Label, args.State} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return TriggerResponse{}, errors.New("exactly one of transition, label or state is required")
	}

	var resp TriggerResponse
	err := s.manager.Do(args.Machine, func(m *vsm.Machine) error {
		switch {
		case args.Transition != "":
			resp.Triggered = m.TryTrigger(args.Transition)
		case args.Label != "":
			resp.Triggered = m.TryTriggerByLabel(args.Label)
		default:
			resp.Triggered = m.TryTriggerByState(args.State)
		}
		resp.Snapshot = m.Snapshot()
		return nil
	})
	s.logger.Debug("mcp: trigger", "machine", args.Machine, "triggered", resp.Triggered, "err", err)
	return resp, err
}

func (s *Server) handleForce(ctx context.Context, request mcp.CallToolRequest, args ForceArgs) (ActionResponse, error) {
	if args.State == "" {
		return ActionResponse{}, errors.New("state is required")
	}
	return s.act(args.Machine, func(m *vsm.Machine) bool { return m.ForceEnterState(args.State) })
}

func (s *Server) control(name string, fn func(*vsm.Machine) bool) func(context.Context, mcp.CallToolRequest, MachineArgs) (ActionResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args MachineArgs) (ActionResponse, error) {
		s.logger.Debug("mcp: "+name, "machine", args.Machine)
		return s.act(args.Machine, fn)
	}
}

func (s *Server) act(name string, fn func(*vsm.Machine) bool) (ActionResponse, error) {
	var resp ActionResponse
	err := s.manager.Do(name, func(m *vsm.Machine) error {
		resp.Accepted = fn(m)
		resp.Snapshot = m.Snapshot()
		return nil
	})
	return resp, err
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("machine")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out string
	err = s.manager.Do(name, func(m *vsm.Machine) error {
		out = graph.GenerateMermaid(m.Graph(), graph.OverlayFromSnapshot(m.Snapshot()))
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(MachinesURI, "Hosted machines",
		mcp.WithResourceDescription("Snapshot of every hosted machine"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.manager.Snapshots())
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshots: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      MachinesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
