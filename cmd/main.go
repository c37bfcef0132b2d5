package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"data-analyst/internal/config"
	"data-analyst/internal/helper"
	"data-analyst/internal/history"
	"data-analyst/internal/llm"
	"data-analyst/internal/loader"
	"data-analyst/internal/profiler"
	"data-analyst/internal/session"
	"data-analyst/internal/vectorstore"

	"data-analyst/internal/embedding"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to the tabular data file (.csv, .xlsx, .ods)")
	query := flag.String("query", "", "Single question to answer, then exit")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	dryRun := flag.Bool("dry-run", false, "Profile the file and print it, no indexing or model calls")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a data file using the -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *dryRun {
		profileFile(*filePath)
		return
	}

	if err := cfg.LoadCredential(); err != nil {
		log.Fatal().Err(err).Msg("Missing credential")
	}

	sess := buildSession(cfg)
	ctx := context.Background()

	if err := sess.LoadFile(ctx, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Error processing file")
	}

	if *query != "" {
		answer, err := sess.Ask(ctx, *query)
		if err != nil {
			log.Fatal().Err(err).Msg("Error answering question")
		}
		fmt.Printf("%s\n", answer)
		return
	}

	runChat(ctx, sess)
}

func buildSession(cfg *config.Config) *session.Session {
	embedder, err := embedding.NewEmbedder(cfg.APIKey, cfg.EmbedLLM.BaseURL, cfg.EmbedLLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store := vectorstore.New(
		cfg.RAG.DBPath,
		cfg.RAG.Collection,
		cfg.RAG.ChunkSize,
		cfg.RAG.ChunkOverlap,
		embedder,
		log.Logger,
	)

	client, err := llm.NewClient(cfg.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	if err := helper.CreateFolder(filepath.Dir(cfg.HistoryPath)); err != nil {
		log.Warn().Err(err).Msg("Could not create history directory")
	}
	hist, err := history.Open(cfg.HistoryPath, cfg.Debug)
	if err != nil {
		log.Warn().Err(err).Msg("Conversation history disabled")
		hist = nil
	}

	return session.New(store, client, hist, cfg.RAG.TopK, log.Logger)
}

func profileFile(filePath string) {
	tbl, err := loader.Load(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading file")
	}
	profile, meta, err := profiler.Profile(tbl, filepath.Base(filePath))
	if err != nil {
		log.Fatal().Err(err).Msg("Error profiling file")
	}
	fmt.Printf("%s\n", profile)
	helper.PrettyPrint(meta)
}

func printHistory(ctx context.Context, sess *session.Session) {
	msgs, err := sess.History(ctx, 20)
	if err != nil {
		log.Error().Err(err).Msg("Error loading conversation history")
		return
	}
	if len(msgs) == 0 {
		fmt.Println("No conversation recorded yet.")
		return
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}

func runChat(ctx context.Context, sess *session.Session) {
	fmt.Println("Ask a question about your data (type 'exit' to quit, 'history' to review the conversation):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}
		if question == "history" {
			printHistory(ctx, sess)
			continue
		}
		answer, err := sess.Ask(ctx, question)
		if err != nil {
			log.Error().Err(err).Msg("Error answering question")
			continue
		}
		fmt.Printf("\n%s\n\n", answer)
	}
}
