// Command reindex rebuilds the search index from the articles table. It is
// the recovery path for index drift: the write sync is best-effort, so a
// prolonged engine outage leaves gaps that only a full rebuild closes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/config"
	logpkg "github.com/ausaur/saurcours/internal/logger"
	articlerepo "github.com/ausaur/saurcours/internal/repository/article"
	"github.com/ausaur/saurcours/internal/transport/meili"
	reindexuc "github.com/ausaur/saurcours/internal/usecase/reindex"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	repo, err := articlerepo.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open articles database", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	index := meili.NewClient(&meili.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Index:   cfg.Search.Index,
		Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := reindexuc.New(repo, index).Run(ctx)
	if err != nil {
		logger.Error("Reindex failed", zap.Error(err))
		os.Exit(1)
	}

	out, _ := json.Marshal(map[string]int{"indexed": count})
	fmt.Println(string(out))
}
