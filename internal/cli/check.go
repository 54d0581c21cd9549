package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/veracity/internal/ingest"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	checkURL     string
	checkTool    string
	checkTimeout time.Duration
	checkLimit   int
	checkUser    string
	outJSON      string
	promptsFile  string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Extract claims from text and fact-check each one",
	Long: `Check extracts factual assertions from the given text (or from a web
page with --url) and verifies each assertion with the configured tool.

Example:
  veracity check "The Earth is round. The moon is made of cheese."
  veracity check --url https://example.com/article --tool google
  veracity check "Water boils at 90 degrees." --json results.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkURL, "url", "", "fetch input text from this URL instead of an argument")
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "fact-check tool (perplexity, google)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "overall session timeout")
	checkCmd.Flags().IntVar(&checkLimit, "concurrency", 0, "max concurrent claim verifications (default from config)")
	checkCmd.Flags().StringVar(&checkUser, "user", "cli", "user identifier recorded on the session")
	checkCmd.Flags().StringVar(&outJSON, "json", "", "write the completed session as JSON to this path")
	checkCmd.Flags().StringVar(&promptsFile, "prompts", "", "YAML file with prompt templates (default: built-ins)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	p, err := pipeline.NewPipeline(cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	text, err := inputText(ctx, cfg, args)
	if err != nil {
		return err
	}

	session := model.NewSession(checkUser, text)
	session = p.ProcessSession(ctx, session)

	if outJSON != "" {
		if err := writeSessionJSON(session, outJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote session: %s\n", outJSON)
		}
	}

	renderSession(session)
	return nil
}

// buildConfig assembles the effective configuration from defaults, the
// config file / environment (viper), and flags
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if tool := viper.GetString("tool"); tool != "" {
		cfg.Tool = tool
	}
	if limit := viper.GetInt("concurrency_limit"); limit > 0 {
		cfg.ConcurrencyLimit = limit
	}
	if checkTool != "" {
		cfg.Tool = checkTool
	}
	if checkLimit > 0 {
		cfg.ConcurrencyLimit = checkLimit
	}
	if promptsFile != "" {
		cfg.Prompts.File = promptsFile
	} else if f := viper.GetString("prompts.file"); f != "" {
		cfg.Prompts.File = f
	}

	cfg.Extractor.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Extractor.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	cfg.Perplexity.APIKey = os.Getenv("PERPLEXITYAI_API_KEY")
	cfg.Google.APIKey = os.Getenv("GOOGLE_API_KEY")

	switch cfg.Tool {
	case "perplexity":
		if cfg.Perplexity.APIKey == "" {
			return nil, fmt.Errorf("PERPLEXITYAI_API_KEY environment variable not set")
		}
	case "google":
		if cfg.Google.APIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable not set")
		}
	}

	// Leave the perplexity backend unconfigured without a key so the
	// pipeline still starts for google-only use
	if cfg.Perplexity.APIKey == "" {
		cfg.Perplexity.Provider = ""
	}

	return cfg, nil
}

func inputText(ctx context.Context, cfg *model.Config, args []string) (string, error) {
	if checkURL != "" {
		fetcher := ingest.NewFetcher(cfg.HTTP)
		text, err := fetcher.FetchText(ctx, checkURL)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", checkURL, err)
		}
		return text, nil
	}

	if len(args) == 0 {
		return "", fmt.Errorf("provide text to check, or --url")
	}
	return args[0], nil
}

func writeSessionJSON(session *model.Session, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// renderSession prints per-claim outcomes. Where a provider returned several
// reviews, the first in response order is shown.
func renderSession(session *model.Session) {
	if len(session.Claims) == 0 {
		fmt.Println("No verifiable claims found.")
		return
	}

	fmt.Printf("Checked %d claim(s):\n\n", len(session.Claims))

	byID := make(map[string]model.VerificationResult, len(session.VerificationResults))
	for _, r := range session.VerificationResults {
		byID[r.ClaimID] = r
	}

	for i, claim := range session.Claims {
		fmt.Printf("%d. %s\n", i+1, claim.Content)

		result, ok := byID[claim.ID]
		if !ok {
			fmt.Println("   (no result)")
			continue
		}

		switch {
		case result.Error != "":
			fmt.Println("   No reliable information found.")
			if verbose {
				fmt.Printf("   error: %s\n", result.Error)
			}
		case len(result.GoogleClaimReviews) > 0:
			first := result.GoogleClaimReviews[0]
			fmt.Printf("   Rating: %s (%s)\n", first.TextualRating, first.Publisher["site"])
			fmt.Printf("   %s\n", first.URL)
		case result.PerplexityClaimReviews != nil && len(result.PerplexityClaimReviews.ClaimReviews) > 0:
			first := result.PerplexityClaimReviews.ClaimReviews[0]
			fmt.Printf("   Conclusion: %s\n", first.Verification.Conclusion)
			for _, src := range first.Verification.Sources {
				if src.URL != "" {
					fmt.Printf("   - %s: %s\n", src.Name, src.URL)
				} else {
					fmt.Printf("   - %s\n", src.Name)
				}
			}
		default:
			fmt.Println("   No reviews found.")
		}
		fmt.Println()
	}
}
