// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/paperit"
	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/ingestion"
	"github.com/poiesic/paperit/reembed"
	"github.com/poiesic/paperit/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "paperit",
		Usage: "Question answering over a corpus of research papers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"PAPERIT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"PAPERIT_DB"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"PAPERIT_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"PAPERIT_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-host",
				Usage:   "Generation service host URL",
				EnvVars: []string{"PAPERIT_GENERATOR_HOST"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Generation model name",
				EnvVars: []string{"PAPERIT_GENERATOR_MODEL"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Add a paper to the corpus from a plain text file",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Paper name (defaults to the file's base name)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
						Value: ingestion.DefaultChunkSize,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question over the corpus",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reasoning",
						Usage: "Print the reasoning trace alongside the answer",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List indexed papers",
				Action: listCommand,
			},
			{
				Name:      "remove",
				Usage:     "Remove a paper from the corpus by name",
				ArgsUsage: "<name>",
				Action:    removeCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate all chunk embeddings with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	file := c.Args().First()

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read paper file: %w", err)
	}

	name := c.String("name")
	if name == "" {
		name = filepath.Base(file)
	}

	chunks := ingestion.SplitText(string(data), c.Int("chunk-size"))
	if len(chunks) == 0 {
		return fmt.Errorf("%s contains no usable text", file)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	doc, err := pipeline.Ingest(context.Background(), name, chunks)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %q (id %d, %d chunks)\n", doc.Name, doc.Id, doc.ChunkCount)
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("expected a question argument")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	router, err := engine.NewRouter()
	if err != nil {
		return err
	}
	defer router.Release()

	response, err := router.Query(context.Background(), question)
	if errors.Is(err, core.ErrEmptyCorpus) {
		return fmt.Errorf("no papers indexed yet, ingest some first")
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(response.Answer)

	if len(response.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range response.Sources {
			fmt.Printf("%d. %s", i+1, s.DocumentName)
			if s.Page > 0 {
				fmt.Printf(" (page %d)", s.Page)
			}
			fmt.Printf(" [score %.3f]\n", s.Score)
		}
	}

	if c.Bool("reasoning") {
		fmt.Println("\nReasoning:")
		for _, step := range response.Reasoning {
			fmt.Printf("- %s: %s\n", step.Step, step.Description)
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.ChunkRepository().ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list papers: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No papers indexed.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%-40s id=%d chunks=%d added=%s\n",
			doc.Name, doc.Id, doc.ChunkCount, doc.InsertedAt.Format("2006-01-02"))
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one paper name argument")
	}
	name := c.Args().First()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if err := pipeline.Remove(context.Background(), core.IDFromContent(name)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no paper named %q", name)
		}
		return fmt.Errorf("removal failed: %w", err)
	}

	fmt.Printf("Removed %q\n", name)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder := reembed.NewReembedder(
		engine.ChunkRepository(), engine.Embedder(), reembedConfig, os.Stderr)
	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// openEngine builds an Engine from flags, environment, and the optional
// config file, with flags taking precedence.
func openEngine(c *cli.Context) (*paperit.Engine, error) {
	cfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required (--db, PAPERIT_DB, or config file)")
	}

	var aiOpts []ai.ConfigOption
	if host := pick(c.String("embedding-host"), cfg.AI.EmbeddingHost); host != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingHost(host))
	}
	if model := pick(c.String("embedding-model"), cfg.AI.EmbeddingModel); model != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
	}
	if host := pick(c.String("generator-host"), cfg.AI.GeneratorHost); host != "" {
		aiOpts = append(aiOpts, ai.WithGeneratorHost(host))
	}
	if model := pick(c.String("generator-model"), cfg.AI.GeneratorModel); model != "" {
		aiOpts = append(aiOpts, ai.WithGeneratorModel(model))
	}
	if cfg.AI.EmbeddingDim > 0 {
		aiOpts = append(aiOpts, ai.WithEmbeddingDim(cfg.AI.EmbeddingDim))
	}

	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return paperit.NewEngine(dbPath, paperit.WithAIConfig(aiConfig))
}

// pick prefers the flag value over the config file value.
func pick(flagValue, fileValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return fileValue
}

func setup(c *cli.Context) error {
	// Load .env if present so flag EnvVars can pick values up from it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
