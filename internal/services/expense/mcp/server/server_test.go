package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/mcp/tools"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	expensesqlite "github.com/louisbranch/pennywise/internal/services/expense/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestNewRequiresService(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected missing service error")
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), newTestService(t), Config{Transport: "http"})
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("error = %v, want unsupported transport", err)
	}
}

func TestServeWithTransportNilServer(t *testing.T) {
	t.Parallel()

	var server *Server
	if err := server.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
}

func TestToolsOverInMemoryTransport(t *testing.T) {
	t.Parallel()

	session := connectClient(t, newTestService(t))
	ctx := context.Background()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range listed.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"expense_add", "expense_list", "expense_delete", "spending_summary", "spending_forecast", "assistant_ask"} {
		if !names[want] {
			t.Fatalf("tool %q not registered", want)
		}
	}

	for _, args := range []map[string]any{
		{"date": "2025-09-01", "category": "Food", "amount": 10.0},
		{"date": "2025-09-02", "category": "Transport", "amount": 20.0, "description": "bus pass"},
		{"date": "2025-09-03", "category": "Food", "amount": 30.0},
	} {
		var added tools.ExpenseAddResult
		callTool(t, session, "expense_add", args, &added)
		if added.Expense.ID == 0 {
			t.Fatalf("added expense missing id: %+v", added)
		}
	}

	var list tools.ExpenseListResult
	callTool(t, session, "expense_list", map[string]any{"filter": `category = "Food"`}, &list)
	if len(list.Expenses) != 2 || list.Expenses[1].Amount != 30 {
		t.Fatalf("list = %+v", list)
	}

	var summary tools.SpendingSummaryResult
	callTool(t, session, "spending_summary", map[string]any{}, &summary)
	if summary.Total != 60 || summary.Count != 3 || summary.ByCategory[0].Category != "Food" {
		t.Fatalf("summary = %+v", summary)
	}

	var forecast tools.SpendingForecastResult
	callTool(t, session, "spending_forecast", map[string]any{"days": 3}, &forecast)
	if len(forecast.Predictions) != 3 || forecast.Predictions[0].Date != "2025-09-04" {
		t.Fatalf("forecast = %+v", forecast)
	}

	var answer tools.AssistantAskResult
	callTool(t, session, "assistant_ask", map[string]any{"prompt": "how much total spending?"}, &answer)
	if answer.Response != "Your total spending so far is $60.00." || answer.Mode != "rules" {
		t.Fatalf("answer = %+v", answer)
	}

	var deleted tools.ExpenseDeleteResult
	callTool(t, session, "expense_delete", map[string]any{"id": list.Expenses[0].ID}, &deleted)
	if deleted.Message != "Expense 1 deleted" {
		t.Fatalf("deleted = %+v", deleted)
	}
}

func TestToolErrorsAreReported(t *testing.T) {
	t.Parallel()

	session := connectClient(t, newTestService(t))
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{name: "invalid category", tool: "expense_add", args: map[string]any{"date": "2025-09-01", "category": "Rent", "amount": 5.0}, want: "category must be one of"},
		{name: "missing expense", tool: "expense_delete", args: map[string]any{"id": 99}, want: "expense not found"},
		{name: "bad filter", tool: "expense_list", args: map[string]any{"filter": "price > 3"}, want: "invalid filter"},
		{name: "no data", tool: "spending_forecast", args: map[string]any{}, want: "at least two days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: tt.tool, Arguments: tt.args})
			if err != nil {
				t.Fatalf("call tool: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected tool error, got %+v", result)
			}
			if text := resultText(result); !strings.Contains(text, tt.want) {
				t.Fatalf("error text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	server, err := New(newTestService(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func newTestService(t *testing.T) *service.Service {
	t.Helper()

	store, err := expensesqlite.Open(filepath.Join(t.TempDir(), "expenses.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return service.New(store, chatbot.NewService(store, nil, ""))
}

func connectClient(t *testing.T, svc *service.Service) *mcp.ClientSession {
	t.Helper()

	server, err := New(svc)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("call %s returned tool error: %s", name, resultText(result))
	}
	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s output: %v", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
