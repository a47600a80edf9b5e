package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/adesina-io/kudiflow/internal/classify"
	"github.com/adesina-io/kudiflow/internal/config"
	"github.com/adesina-io/kudiflow/internal/document"
	"github.com/adesina-io/kudiflow/internal/engine"
	"github.com/adesina-io/kudiflow/internal/enrich"
	"github.com/adesina-io/kudiflow/internal/extract"
	"github.com/adesina-io/kudiflow/internal/llm"
	"github.com/adesina-io/kudiflow/internal/ocr"
	"github.com/adesina-io/kudiflow/internal/service"
	"github.com/adesina-io/kudiflow/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/kudiflow/kudiflow.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initInterpreter builds the LLM interpreter from config.
func initInterpreter(ctx context.Context) (*llm.Interpreter, error) {
	return llm.NewInterpreter(ctx, llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		CallTimeout: viper.GetDuration("llm.call_timeout"),
	})
}

// buildPipeline wires the full processing stack: OCR, interpreter, cascade
// and enrichers around the shared storage.
func buildPipeline(ctx context.Context, store service.Storage) (*engine.Pipeline, *llm.Interpreter, error) {
	visionOCR, err := ocr.NewVisionOCR(ctx, ocr.Config{
		APIKey: viper.GetString("ocr.api_key"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR provider: %w", err)
	}

	interpreter, err := initInterpreter(ctx)
	if err != nil {
		return nil, nil, err
	}

	cascade := buildCascade(store, interpreter)

	pipeline, err := engine.NewPipeline(engine.Options{
		Storage:    store,
		Normalizer: document.NewNormalizer(visionOCR, document.DefaultConfig()),
		Extractor:  extract.NewExtractor(interpreter, extract.DefaultConfig()),
		Cascade:    cascade,
		Thresholds: enrich.DefaultThresholds(time.Now()),
	})
	if err != nil {
		_ = interpreter.Close()
		return nil, nil, err
	}

	return pipeline, interpreter, nil
}

// buildCascade assembles the three classification tiers in order.
func buildCascade(store service.Storage, interpreter service.DocumentInterpreter) *classify.Cascade {
	cfg := classify.DefaultConfig()
	return classify.NewCascade(
		classify.NewPatternStrategy(store, cfg),
		classify.NewRuleStrategy(classify.DefaultRules(), cfg),
		classify.NewLLMStrategy(interpreter, store, viper.GetString("business.sector")),
	)
}
