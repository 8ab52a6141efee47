package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/classware/coursechat/internal/ai"
	"github.com/classware/coursechat/internal/config"
	"github.com/classware/coursechat/internal/docsource"
	"github.com/classware/coursechat/internal/embedcache"
	"github.com/classware/coursechat/internal/handler"
	"github.com/classware/coursechat/internal/index"
	"github.com/classware/coursechat/internal/ingest"
	"github.com/classware/coursechat/internal/job"
	"github.com/classware/coursechat/internal/rag"
	"github.com/classware/coursechat/internal/schedule"
	"github.com/classware/coursechat/internal/session"
	"github.com/classware/coursechat/internal/vectorstore"
)

func main() {
	var configPath string
	var clearExisting bool

	rootCmd := &cobra.Command{
		Use:   "coursechat",
		Short: "course materials QA backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run coursechat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg, clearExisting)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	runCmd.Flags().BoolVar(&clearExisting, "clear-existing", false, "rebuild the index from scratch on startup")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, clearExisting bool) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("docs", cfg.Docs.Type),
		zap.String("index", cfg.Index.Backend),
		zap.String("ai", cfg.AI.Provider),
	)

	generator, embedder, err := buildAI(cfg.AI)
	if err != nil {
		return err
	}
	if cfg.AI.EmbedCacheSize > 0 {
		ttl := time.Duration(cfg.AI.EmbedCacheTTL) * time.Minute
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize, ttl)
	}

	store, err := vectorstore.New(cfg.Index.Backend, cfg.Index.Data)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	idx := index.New(store, embedder)

	source, err := docsource.New(cfg.Docs.Type, cfg.Docs.Data)
	if err != nil {
		return fmt.Errorf("init document source: %w", err)
	}
	chunker := ingest.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	loader := ingest.NewLoader(source, chunker, idx)

	sessions := session.NewStore()
	svc := rag.NewService(idx, sessions, generator, rag.Config{
		TopK:       cfg.RAG.TopK,
		MaxHistory: cfg.RAG.MaxHistory,
		Timeout:    cfg.AI.Timeout,
	})

	router := handler.NewRouter(handler.RouterDeps{
		Chat:      handler.NewChatHandler(svc, sessions),
		StaticDir: cfg.StaticDir,
		CORSAllow: cfg.CORSAllow,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The index warms up in the background so the server accepts requests
	// immediately; queries against a cold index just retrieve nothing.
	go func() {
		if _, _, err := loader.LoadAll(ctx, clearExisting); err != nil {
			logutil.GetLogger(ctx).Error("initial document load failed", zap.Error(err))
		}
	}()

	if cfg.RescanCron != "" {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewRescanJob(loader), cfg.RescanCron); err != nil {
			return fmt.Errorf("schedule rescan: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: router}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildAI assembles the generation and embedding chain. With fallbacks
// configured, backends are tried in order and the first success wins.
func buildAI(cfg config.AIConfig) (ai.IGenerator, ai.IEmbedder, error) {
	backends := append([]config.AIBackendConfig{{
		Provider:      cfg.Provider,
		GenerateModel: cfg.GenerateModel,
		EmbedModel:    cfg.EmbedModel,
		Data:          cfg.Data,
	}}, cfg.Fallbacks...)

	var generators []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, backend := range backends {
		provider, err := ai.NewProvider(backend.Provider, backend.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init ai provider %s: %w", backend.Provider, err)
		}
		embedProvider, err := ai.NewEmbedProvider(backend.Provider, backend.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init embed provider %s: %w", backend.Provider, err)
		}
		generators = append(generators, ai.GeneratorEntry{
			Name:      backend.Provider,
			Generator: ai.NewGenerator(provider, backend.GenerateModel),
		})
		embedders = append(embedders, ai.EmbedderEntry{
			Name:     backend.EmbedModel,
			Embedder: ai.NewEmbedder(embedProvider, backend.EmbedModel),
		})
	}
	if len(backends) == 1 {
		return generators[0].Generator, embedders[0].Embedder, nil
	}
	return ai.NewGroupGenerator(generators), ai.NewGroupEmbedder(embedders), nil
}
