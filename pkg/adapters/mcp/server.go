package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
)

// Wizard is the part of ingest.Wizard exposed as tools.
type Wizard interface {
	Start(ctx context.Context, sessionID string, cfg domain.Configuration) (*domain.WizardState, error)
	Render(ctx context.Context, sessionID string, rc domain.RenderContext) (*domain.RenderableStep, error)
	Submit(ctx context.Context, sessionID, control string, values map[string]any) (*ingest.SubmitResult, error)
	Abandon(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
	Steps(ctx context.Context, models []string) ([]domain.Step, error)
}

// StepResponse is returned by the tools that leave the wizard on a step.
type StepResponse struct {
	SessionID string                     `json:"session_id" jsonschema_description:"Session to pass to the next call"`
	Step      *domain.RenderableStep     `json:"step,omitempty" jsonschema_description:"The current step and its form"`
	Errors    map[string]string          `json:"errors,omitempty" jsonschema_description:"Field errors of a rejected submission"`
	Result    *domain.FinalizationResult `json:"result,omitempty" jsonschema_description:"Set once the wizard is finalized"`
}

// StartArgs are the arguments of start_wizard.
type StartArgs struct {
	SessionID   string   `json:"session_id"`
	ID          string   `json:"id,omitempty"`
	Namespace   string   `json:"namespace,omitempty"`
	Label       string   `json:"label,omitempty"`
	Models      []string `json:"models,omitempty"`
	Collections []string `json:"collections,omitempty"`
}

// SubmitArgs are the arguments of submit_step.
type SubmitArgs struct {
	SessionID string         `json:"session_id"`
	Control   string         `json:"control"`
	Values    map[string]any `json:"values,omitempty"`
}

// SessionArgs name a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps a Wizard and exposes it as an MCP Server.
type Server struct {
	wizard    Wizard
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger is silent.
func NewServer(w Wizard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		wizard:    w,
		logger:    logger,
		mcpServer: server.NewMCPServer("ingest-mcp", strings.TrimSpace(ingest.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_wizard",
		mcp.WithDescription("Start an ingestion wizard, or resume the one with the same session id, and render its current step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Caller chosen session id")),
		mcp.WithString("id", mcp.Description("Explicit identifier of the new object")),
		mcp.WithString("namespace", mcp.Description("Namespace to allocate the object identifier in")),
		mcp.WithString("label", mcp.Description("Initial label of the object")),
		mcp.WithArray("models", mcp.Description("Content models whose steps are offered"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("collections", mcp.Description("Parent collections of the object"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	renderTool := mcp.NewTool("render_step",
		mcp.WithDescription("Render the current step of a wizard: its fields, values and the controls that can be submitted."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRender))

	submitTool := mcp.NewTool("submit_step",
		mcp.WithDescription("Submit the current step with one of its controls: prev, next or ingest. Ingest creates the objects and ends the wizard."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("control", mcp.Required(), mcp.Description("Control name"), mcp.Enum(domain.ControlPrevious, domain.ControlNext, domain.ControlIngest)),
		mcp.WithObject("values", mcp.Description("Field values keyed by field name")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("abandon_wizard",
		mcp.WithDescription("Discard a wizard without creating anything."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.wizard.Abandon(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("abandon failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s abandoned", id)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_steps",
		mcp.WithDescription("List the steps a wizard for the given content models would go through."),
		mcp.WithArray("models", mcp.Description("Content models"), mcp.Items(map[string]any{"type": "string"})),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		steps, err := s.wizard.Steps(ctx, request.GetStringSlice("models", nil))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(steps)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	cfg := domain.Configuration{
		ID:          args.ID,
		Namespace:   args.Namespace,
		Label:       args.Label,
		Models:      args.Models,
		Collections: args.Collections,
	}
	if _, err := s.wizard.Start(ctx, args.SessionID, cfg); err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.render(ctx, args.SessionID)
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (StepResponse, error) {
	return s.render(ctx, args.SessionID)
}

func (s *Server) render(ctx context.Context, sessionID string) (StepResponse, error) {
	step, err := s.wizard.Render(ctx, sessionID, domain.RenderContext{})
	if err != nil {
		return StepResponse{}, fmt.Errorf("render failed: %w", err)
	}
	return StepResponse{SessionID: sessionID, Step: step}, nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args SubmitArgs) (StepResponse, error) {
	res, err := s.wizard.Submit(ctx, args.SessionID, args.Control, args.Values)
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		// A rejected submission is an answer, not a tool failure.
		out, rerr := s.render(ctx, args.SessionID)
		if rerr != nil {
			return StepResponse{}, rerr
		}
		out.Errors = verr.Fields
		return out, nil
	case err != nil:
		s.logger.WarnContext(ctx, "MCP submit failed", "session_id", args.SessionID, "err", err)
		return StepResponse{}, fmt.Errorf("submit failed: %w", err)
	}

	if res.Finalized() {
		return StepResponse{SessionID: args.SessionID, Result: res.Result}, nil
	}
	return s.render(ctx, args.SessionID)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("ingest://sessions", "Active wizard sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.wizard.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "ingest://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
