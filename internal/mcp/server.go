package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/search"
	"github.com/Aman-CERP/amankb/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "amankb"

// suggestionCount is how many alternatives a topic miss offers.
const suggestionCount = 3

// KnowledgeBase is the retrieval surface the server exposes.
// *kb.Service implements it.
type KnowledgeBase interface {
	Search(ctx context.Context, query string, n int) ([]search.Result, error)
	TopicDetails(ctx context.Context, topic string) (corpus.Document, error)
	SuggestTopics(ctx context.Context, topic string, n int) []string
	ListTopics(ctx context.Context, category string) ([]string, error)
	Reload(ctx context.Context, sources ...corpus.Source) (uint64, error)
	Status() kb.Status
}

var _ KnowledgeBase = (*kb.Service)(nil)

// Server bridges AI clients with the knowledge base.
type Server struct {
	mcp    *mcp.Server
	kb     KnowledgeBase
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates an MCP server over base. A nil logger uses slog.Default.
func NewServer(base KnowledgeBase, logger *slog.Logger) (*Server, error) {
	if base == nil {
		return nil, errors.New("knowledge base is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{kb: base, logger: logger}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: version.Version},
		nil,
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolDescriptions))
	copy(out, toolDescriptions)
	return out
}

// CallTool invokes a tool by name with JSON-decoded arguments and returns
// its text output.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case ToolSearch:
		query, err := stringArg(args, "query", true)
		if err != nil {
			return "", err
		}
		n, err := intArg(args, "num_results")
		if err != nil {
			return "", err
		}
		return s.search(ctx, SearchInput{Query: query, NumResults: n})
	case ToolTopic:
		topic, err := stringArg(args, "topic", true)
		if err != nil {
			return "", err
		}
		return s.topic(ctx, TopicInput{Topic: topic})
	case ToolListTopics:
		category, err := stringArg(args, "category", false)
		if err != nil {
			return "", err
		}
		return s.listTopics(ctx, ListTopicsInput{Category: category})
	case ToolReload:
		return s.reload(ctx)
	case ToolStatus:
		return s.status()
	default:
		return "", NewMethodNotFoundError(name)
	}
}

func (s *Server) search(ctx context.Context, in SearchInput) (string, error) {
	start := time.Now()
	requestID := uuid.NewString()

	// Blank queries go through the knowledge base so they fail with the
	// same typed empty-query error as stop-word-only ones.
	results, err := s.kb.Search(ctx, in.Query, in.NumResults)
	if err != nil {
		s.logFailure(ToolSearch, requestID, start, err)
		return "", MapError(err)
	}

	s.logger.Info("tool_completed",
		slog.String("tool", ToolSearch),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(results)))
	return FormatSearchResults(in.Query, results), nil
}

func (s *Server) topic(ctx context.Context, in TopicInput) (string, error) {
	start := time.Now()
	requestID := uuid.NewString()

	if strings.TrimSpace(in.Topic) == "" {
		return "", NewInvalidParamsError("topic parameter is required")
	}

	doc, err := s.kb.TopicDetails(ctx, in.Topic)
	if amanerrors.IsNotFound(err) {
		suggestions := s.kb.SuggestTopics(ctx, in.Topic, suggestionCount)
		s.logger.Info("tool_completed",
			slog.String("tool", ToolTopic),
			slog.String("request_id", requestID),
			slog.Bool("found", false),
			slog.Int("suggestions", len(suggestions)))
		return FormatTopicNotFound(in.Topic, suggestions), nil
	}
	if err != nil {
		s.logFailure(ToolTopic, requestID, start, err)
		return "", MapError(err)
	}

	s.logger.Info("tool_completed",
		slog.String("tool", ToolTopic),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("found", true))
	return FormatTopicDetails(doc), nil
}

func (s *Server) listTopics(ctx context.Context, in ListTopicsInput) (string, error) {
	start := time.Now()
	requestID := uuid.NewString()

	topics, err := s.kb.ListTopics(ctx, in.Category)
	if err != nil {
		s.logFailure(ToolListTopics, requestID, start, err)
		return "", MapError(err)
	}

	s.logger.Info("tool_completed",
		slog.String("tool", ToolListTopics),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(topics)))
	return FormatTopicList(in.Category, topics), nil
}

func (s *Server) reload(ctx context.Context) (string, error) {
	start := time.Now()
	requestID := uuid.NewString()

	gen, err := s.kb.Reload(ctx)
	if err != nil {
		s.logFailure(ToolReload, requestID, start, err)
		mapped := MapError(err)
		if ae, ok := amanerrors.As(err); ok && ae.Cause != nil {
			mapped.Message = fmt.Sprintf("%s (%v)", mapped.Message, ae.Cause)
		}
		return "", mapped
	}

	s.logger.Info("tool_completed",
		slog.String("tool", ToolReload),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Uint64("generation", gen))
	return FormatReload(gen, s.kb.Status()), nil
}

func (s *Server) status() (string, error) {
	out, err := FormatStatus(s.kb.Status())
	if err != nil {
		return "", MapError(amanerrors.InternalError("failed to encode status", err))
	}
	return out, nil
}

// logFailure keeps expected outcomes (bad input, lookup misses) out of the
// error level.
func (s *Server) logFailure(tool, requestID string, start time.Time, err error) {
	level := slog.LevelError
	if ae, ok := amanerrors.As(err); ok && ae.Category == amanerrors.CategoryValidation {
		level = slog.LevelInfo
	}
	attrs := []any{
		slog.String("tool", tool),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	}
	s.logger.Log(context.Background(), level, "tool_failed", append(attrs, amanerrors.LogAttrs(err)...)...)
}

func (s *Server) registerTools() {
	descriptions := make(map[string]string, len(toolDescriptions))
	for _, t := range toolDescriptions {
		descriptions[t.Name] = t.Description
	}

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearch, Description: descriptions[ToolSearch]},
		func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
			return textResult(s.search(ctx, in))
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolTopic, Description: descriptions[ToolTopic]},
		func(ctx context.Context, _ *mcp.CallToolRequest, in TopicInput) (*mcp.CallToolResult, any, error) {
			return textResult(s.topic(ctx, in))
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolListTopics, Description: descriptions[ToolListTopics]},
		func(ctx context.Context, _ *mcp.CallToolRequest, in ListTopicsInput) (*mcp.CallToolResult, any, error) {
			return textResult(s.listTopics(ctx, in))
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolReload, Description: descriptions[ToolReload]},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
			return textResult(s.reload(ctx))
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolStatus, Description: descriptions[ToolStatus]},
		func(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
			return textResult(s.status())
		})

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(toolDescriptions)))
}

func textResult(text string, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// Serve runs the server on the given transport until ctx is canceled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", NewInvalidParamsError(key + " parameter is required")
		}
		return "", nil
	}
	str, ok := v.(string)
	if !ok {
		return "", NewInvalidParamsError(key + " must be a string")
	}
	return str, nil
}

// intArg accepts JSON numbers (float64) as well as Go ints.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, NewInvalidParamsError(key + " must be an integer")
		}
		return int(v), nil
	default:
		return 0, NewInvalidParamsError(key + " must be a number")
	}
}
