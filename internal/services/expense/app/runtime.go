package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/pennywise/internal/platform/config"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	expensesqlite "github.com/louisbranch/pennywise/internal/services/expense/storage/sqlite"
)

// RuntimeConfig holds the storage and assistant settings shared by every
// pennywise command.
type RuntimeConfig struct {
	DBPath        string `env:"PENNYWISE_DB_PATH" envDefault:"data/expenses.db"`
	GeminiAPIKey  string `env:"PENNYWISE_GEMINI_API_KEY"`
	GeminiModel   string `env:"PENNYWISE_GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	GeminiBaseURL string `env:"PENNYWISE_GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
}

// LoadRuntimeConfig reads RuntimeConfig from the environment.
func LoadRuntimeConfig() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return RuntimeConfig{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "expenses.db")
	}
	return cfg, nil
}

// Runtime owns the store and the service built on it.
type Runtime struct {
	Service *service.Service
	store   *expensesqlite.Store
}

// OpenRuntime opens the expense store and wires the chatbot and service.
func OpenRuntime(cfg RuntimeConfig) (*Runtime, error) {
	store, err := openExpenseStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	gemini := chatbot.NewGeminiClient(chatbot.GeminiConfig{
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
	})
	chat := chatbot.NewService(store, gemini, cfg.GeminiAPIKey)
	return &Runtime{
		Service: service.New(store, chat),
		store:   store,
	}, nil
}

// Close releases the store.
func (r *Runtime) Close() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		log.Printf("close expense store: %v", err)
	}
}

func openExpenseStore(path string) (*expensesqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := expensesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open expense sqlite store: %w", err)
	}
	return store, nil
}
