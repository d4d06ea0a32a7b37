// Command server runs a demo GraphQL endpoint over a small blog model:
// authors and posts backed by MySQL, with filtered and paginated list
// fields assembled through the schema builder.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/config"
	"gql-listkit/internal/countcache"
	"gql-listkit/internal/filterset"
	"gql-listkit/internal/logging"
	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/observability"
	"gql-listkit/internal/pagination"
	"gql-listkit/internal/schema"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	store, err := config.NewStore(config.Load)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := store.Current()

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger.Logger)

	meterProvider, err := observability.InitMeterProvider(observability.Config{
		ServiceName:    "gql-listkit",
		ServiceVersion: Version,
		Environment:    "demo",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		_ = meterProvider.Shutdown(context.Background(), logger.Logger)
	}()

	metrics, err := observability.InitListMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize list metrics: %w", err)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (flag --database.dsn or env GQLK_DATABASE_DSN)")
	}
	db, err := sql.Open("mysql", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	defer db.Close()

	gqlSchema, err := buildSchema(db, cfg, metrics)
	if err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}

	gqlHandler := handler.New(&handler.Config{
		Schema:     &gqlSchema,
		Pretty:     true,
		GraphiQL:   true,
		Playground: false,
	})

	mux := http.NewServeMux()
	mux.Handle("/graphql", requestContext(logger, gqlHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildSchema declares the demo entities and their list fields.
func buildSchema(db *sql.DB, cfg *config.Settings, metrics *observability.ListMetrics) (graphql.Schema, error) {
	author := &model.Entity{
		Name: "author",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindID, PrimaryKey: true},
			{Name: "name", Kind: model.KindString},
			{Name: "email", Kind: model.KindString},
			{Name: "joined_at", Kind: model.KindTime},
		},
	}
	post := &model.Entity{
		Name: "post",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindID, PrimaryKey: true},
			{Name: "title", Kind: model.KindString},
			{Name: "body", Kind: model.KindString, NotOrderable: true},
			{Name: "published", Kind: model.KindBool},
			{Name: "created_at", Kind: model.KindTime},
			{Name: "author_id", Kind: model.KindInt},
		},
		Relations: []model.Relation{
			{Name: "author", Target: "author", LocalColumn: "author_id", RemoteColumn: "id"},
		},
	}

	var cache *countcache.Cache
	if cfg.Cache.Enabled {
		cache = countcache.New(countcache.NewMemoryBackend(), cfg.Cache.TTL)
	}

	registry := model.NewRegistry()
	builder := schema.NewBuilder(registry, collection.NewSQLProvider(db), schema.Options{
		Pagination: &cfg.Pagination,
		Cache:      cache,
		Metrics:    metrics,
	})

	if err := registry.Register(author); err != nil {
		return graphql.Schema{}, err
	}
	if err := registry.Register(post); err != nil {
		return graphql.Schema{}, err
	}

	if err := builder.AddList(author, schema.ListConfig{
		Filter: filterset.Spec{
			"name":      {lookup.Exact, lookup.IContains, lookup.IStartsWith},
			"email":     {lookup.Exact, lookup.IExact},
			"joined_at": {lookup.GTE, lookup.LTE, lookup.Year},
		},
		Pagination:  pagination.Config{DefaultOrdering: "name"},
		Description: "Authors, ordered by name unless overridden.",
	}); err != nil {
		return graphql.Schema{}, err
	}
	if err := builder.AddGet(author); err != nil {
		return graphql.Schema{}, err
	}

	if err := builder.AddList(post, schema.ListConfig{
		Filter: filterset.Spec{
			"title":        {lookup.Exact, lookup.IContains},
			"published":    {lookup.Exact},
			"created_at":   {lookup.GTE, lookup.LTE, lookup.Year, lookup.Month},
			"author__name": {lookup.Exact, lookup.IContains},
		},
		Strategy: schema.StrategyPage,
		Pagination: pagination.Config{
			PageSizeArg:     "pageSize",
			DefaultOrdering: "-created_at",
		},
		Description: "Posts, newest first unless overridden.",
	}); err != nil {
		return graphql.Schema{}, err
	}
	if err := builder.AddGet(post); err != nil {
		return graphql.Schema{}, err
	}

	return builder.Schema()
}

// requestContext tags every request with an ID and a scoped logger.
func requestContext(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logging.WithRequestIDContext(r.Context(), requestID)
		ctx = logging.WithLogger(ctx, logger.WithRequestID(requestID))
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
