package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pdfrag/internal/chunker"
	"pdfrag/internal/completion/openai"
	"pdfrag/internal/config"
	"pdfrag/internal/domain"
	embopenai "pdfrag/internal/embedding/openai"
	"pdfrag/internal/extract"
	"pdfrag/internal/ingest"
	"pdfrag/internal/prompt"
	"pdfrag/internal/retrieval"
	"pdfrag/internal/retry"
	"pdfrag/internal/service"
	"pdfrag/internal/session"
	"pdfrag/internal/tagger"
	"pdfrag/internal/tokenizer"
	"pdfrag/internal/tui"
	"pdfrag/internal/vectorstore/memory"
	"pdfrag/internal/vectorstore/pinecone"
)

var (
	cfgPath string
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Embed a PDF corpus and answer questions grounded in it",
	Long: `pdfrag turns a directory of PDFs into a searchable vector index and
answers questions using only what the corpus says.

  pdfrag ingest          embed ./pdfs (or ingest.source_dir) into the index
  pdfrag ask "..."       one-shot question with a printed answer
  pdfrag chat            interactive session with tones, ratings, and export`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments set the variables directly.
		_ = godotenv.Load()

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Extract, chunk, embed, and upsert every PDF in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive assistant",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var (
	ingestTags []string

	askTone   string
	askStrict bool
	askFilter []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config YAML (default: ./config.yaml, then ~/.config/pdfrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ingestCmd.Flags().StringArrayVar(&ingestTags, "tag", nil, "extra key=value tag applied to every chunk (repeatable)")

	askCmd.Flags().StringVar(&askTone, "tone", "", "tone template to answer in (default from config)")
	askCmd.Flags().BoolVar(&askStrict, "strict", false, "force the strict answer format")
	askCmd.Flags().StringArrayVar(&askFilter, "filter", nil, "key=value metadata filter (repeatable; same key ORs values)")

	rootCmd.AddCommand(ingestCmd, askCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", zap.String("path", path))
	return cfg, nil
}

func buildStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStore(), nil
	case "pinecone":
		if cfg.VectorStore.Pinecone == nil {
			return nil, fmt.Errorf("vector_store.pinecone config missing")
		}
		return pinecone.NewStore(pinecone.Config{
			Host:      cfg.VectorStore.Pinecone.Host,
			APIKeyEnv: cfg.VectorStore.Pinecone.APIKeyEnv,
			Namespace: cfg.VectorStore.Pinecone.Namespace,
			Timeout:   time.Duration(cfg.VectorStore.Pinecone.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	return embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dir := cfg.Ingest.SourceDir
	if len(args) == 1 {
		dir = args[0]
	}
	extraTags, err := parseTags(ingestTags)
	if err != nil {
		return err
	}

	tok, err := tokenizer.New(cfg.Chunker.Encoding)
	if err != nil {
		return err
	}
	ch, err := chunker.NewTokenChunker(tok, cfg.Chunker.Size, *cfg.Chunker.Overlap, cfg.Chunker.MaxTokens)
	if err != nil {
		return err
	}
	catalog, err := tagger.LoadCatalog(cfg.Ingest.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load tag catalog: %w", err)
	}
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	policy := retry.Default()
	if cfg.Ingest.MaxRetries > 0 {
		policy.MaxAttempts = cfg.Ingest.MaxRetries
	}
	orch := ingest.New(extract.NewPDF(), ch, tok, emb, store, catalog, ingest.Config{
		BatchSize: cfg.Ingest.BatchSize,
		MaxTokens: cfg.Chunker.MaxTokens,
		Pace:      time.Duration(*cfg.Ingest.PaceMillis) * time.Millisecond,
		Retry:     policy,
	}, logger)

	report, err := orch.Ingest(cmd.Context(), dir, extraTags)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d, skipped %d, failed %d; %d chunks written, %d skipped\n",
		report.Processed, report.Skipped, report.Failed,
		report.ChunksWritten, report.ChunksSkipped)
	if report.Failed > 0 {
		return fmt.Errorf("%d document(s) failed to upload", report.Failed)
	}
	return nil
}

func buildAssistant(cfg *config.AppConfig) (*service.Assistant, error) {
	tok, err := tokenizer.New(cfg.Chunker.Encoding)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	completer, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Completion.BaseURL,
		APIKeyEnv: cfg.Completion.APIKeyEnv,
		Model:     cfg.Completion.Model,
		Timeout:   time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	tones, err := prompt.LoadTones(cfg.Prompt.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tone templates: %w", err)
	}

	opts := []prompt.Option{prompt.WithStrictness(prompt.Strictness(cfg.Prompt.Strictness))}
	if askStrict {
		opts = []prompt.Option{prompt.WithStrictness(prompt.Strict)}
	}
	if cfg.Prompt.Preamble != "" {
		opts = append(opts, prompt.WithPreamble(cfg.Prompt.Preamble))
	}

	r := retrieval.New(emb, store, tok, retrieval.Config{
		TopK:     cfg.Retrieval.TopK,
		LocalCap: cfg.Retrieval.LocalCap,
		Budget:   cfg.Retrieval.Budget,
	})
	return service.NewAssistant(r, prompt.NewAssembler(tones, opts...), completer, tones, session.NewLog(), service.Config{
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: *cfg.Completion.Temperature,
	}), nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	assistant, err := buildAssistant(cfg)
	if err != nil {
		return err
	}
	tone := askTone
	if tone == "" {
		tone = cfg.Prompt.DefaultTone
	}
	filter, err := parseFilter(askFilter)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer, _, err := assistant.Ask(cmd.Context(), question, tone, filter)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	assistant, err := buildAssistant(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(assistant), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// parseTags turns repeated key=value flags into a tag map.
func parseTags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid tag %q, expected key=value", p)
		}
		tags[k] = v
	}
	return tags, nil
}

// parseFilter builds a metadata filter from repeated key=value flags.
// Multiple values for the same key are ORed.
func parseFilter(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	byKey := make(map[string][]string)
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", p)
		}
		byKey[k] = append(byKey[k], v)
	}
	filter := make(map[string]any, len(byKey))
	for k, vs := range byKey {
		for key, value := range retrieval.TagFilter(k, vs...) {
			filter[key] = value
		}
	}
	return filter, nil
}
