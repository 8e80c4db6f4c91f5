package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/okarpov/skillfit/internal/cache"
	"github.com/okarpov/skillfit/internal/enrich"
	"github.com/okarpov/skillfit/internal/enrich/gemini"
	"github.com/okarpov/skillfit/internal/logger"
	"github.com/okarpov/skillfit/internal/match"
	"github.com/okarpov/skillfit/internal/metrics"
	"github.com/okarpov/skillfit/internal/secrets"
	"github.com/okarpov/skillfit/internal/taxonomy"
)

const (
	PromptExit         = "Exit"
	PromptShowGaps     = "Show critical gaps"
	PromptReportToFile = "Dump report to file"

	defaultCachePath = "skillfit-cache.db"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowGaps, PromptReportToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a candidate's skill list against job requirements",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("requirements", "r", "", "file with required skills, one per line (optional context after a tab)")
	matchCmd.Flags().StringP("skills", "s", "", "file with the candidate's skills, one per line")
	matchCmd.Flags().StringP("output", "o", "", "write the match report to this file instead of stdout")
	matchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask what to do with the report")

	matchCmd.MarkFlagRequired("requirements")
	matchCmd.MarkFlagRequired("skills")
}

// output is the full document the command emits: the report plus the batch
// and cache accounting around it.
type output struct {
	Report               *match.Report  `json:"report"`
	RequirementEnriching enrich.Summary `json:"requirement_enrichment"`
	CandidateEnriching   enrich.Summary `json:"candidate_enrichment"`
	CacheStats           cache.Stats    `json:"cache_stats"`
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		config = &Config{}
	}

	log.Info("starting skillfit", zap.String("version", version))

	requirements, err := loadInputs(cmd.Flag("requirements").Value.String())
	if err != nil {
		log.Fatal("loading required skills", zap.Error(err))
	}
	candidates, err := loadInputs(cmd.Flag("skills").Value.String())
	if err != nil {
		log.Fatal("loading candidate skills", zap.Error(err))
	}

	log.Info("loaded skill lists",
		zap.Int("requirements", len(requirements)),
		zap.Int("candidate_skills", len(candidates)),
	)

	if config.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(config.MetricsListen); err != nil {
				log.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", config.MetricsListen))
	}

	store := openCache(config, log)
	defer store.Close()

	enricher := buildEnricher(ctx, config, store, log)

	reqDefs, reqSummary := enricher.EnrichAll(ctx, requirements)
	candDefs, candSummary := enricher.EnrichAll(ctx, candidates)

	log.Info("enrichment completed",
		zap.Int("from_cache", reqSummary.FromCache+candSummary.FromCache),
		zap.Int("from_heuristic", reqSummary.FromHeuristic+candSummary.FromHeuristic),
		zap.Int("from_llm", reqSummary.FromLLM+candSummary.FromLLM),
		zap.Int("skipped", reqSummary.Skipped+candSummary.Skipped),
		zap.Int("collaborator_failures", reqSummary.Failures+candSummary.Failures),
	)

	table := taxonomy.NewTable(parseAdjacency(config.ExtraAdjacency, log)...)
	report := match.Match(table, log, reqDefs, candDefs)

	doc := &output{
		Report:               report,
		RequirementEnriching: reqSummary,
		CandidateEnriching:   candSummary,
		CacheStats:           store.Stats(),
	}

	log.Info("match report ready",
		zap.Float64("overall_score", report.OverallScore),
		zap.String("match_level", string(report.MatchLevel)),
		zap.Int("critical_gaps", len(report.CriticalGaps)),
		zap.Int("surplus_skills", len(report.SurplusSkills)),
		zap.Float64("cache_hit_rate", doc.CacheStats.HitRate()),
	)

	if outFile := cmd.Flag("output").Value.String(); outFile != "" {
		if err := writeReport(doc, outFile); err != nil {
			log.Fatal("writing report", zap.Error(err))
		}
		log.Info("report written", zap.String("filename", outFile))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		pretty, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if err := handleAction(action, doc, log); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, doc *output, log *zap.Logger) error {
	switch action {
	case PromptShowGaps:
		if len(doc.Report.CriticalGaps) == 0 {
			log.Info("no critical gaps")
			return nil
		}
		pretty, _ := json.MarshalIndent(doc.Report.CriticalGaps, "", "  ")
		log.Info(string(pretty), zap.Int("critical_gaps", len(doc.Report.CriticalGaps)))
		return nil
	case PromptReportToFile:
		filename := fmt.Sprintf("%s-report-%d.json", app, time.Now().Unix())
		if err := writeReport(doc, filename); err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		log.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		log.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func openCache(config *Config, log *zap.Logger) cache.Cache {
	path := strings.TrimSpace(config.CachePath)
	if path == "" {
		path = defaultCachePath
	}

	store, err := cache.OpenSQLite(path)
	if err != nil {
		log.Warn("opening cache database failed; falling back to in-memory cache",
			zap.String("path", path),
			zap.Error(err),
		)
		return cache.NewMemory()
	}

	if purged, err := store.PurgeStale(taxonomy.Version); err != nil {
		log.Warn("purging stale cache entries", zap.Error(err))
	} else if purged > 0 {
		log.Info("purged stale cache entries",
			zap.Int64("count", purged),
			zap.String("taxonomy_version", taxonomy.Version),
		)
	}

	return store
}

func buildEnricher(ctx context.Context, config *Config, store cache.Cache, log *zap.Logger) *enrich.Enricher {
	opts := []enrich.Option{
		enrich.WithConcurrency(config.Concurrency),
	}

	if collaborator := buildCollaborator(ctx, config, log); collaborator != nil {
		opts = append(opts, enrich.WithCollaborator(collaborator))
		if g := config.AI.Gemini; g != nil {
			opts = append(opts,
				enrich.WithMaxRetries(g.MaxRetries),
				enrich.WithTimeout(time.Duration(g.TimeoutSeconds)*time.Second),
			)
		}
	}

	return enrich.New(store, taxonomy.Version, log, opts...)
}

func buildCollaborator(ctx context.Context, config *Config, log *zap.Logger) enrich.Collaborator {
	if config.AI == nil || !config.AI.Enabled {
		return nil
	}

	if provider := strings.ToLower(strings.TrimSpace(config.AI.Provider)); provider != "" && provider != "gemini" {
		log.Warn("unknown ai provider; enrichment degrades to heuristics",
			zap.String("provider", config.AI.Provider),
		)
		return nil
	}

	g := config.AI.Gemini
	if g == nil {
		g = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: firstNonEmpty(g.APIKey, viper.GetString("ai.gemini.api-key")),
		File:  g.APIKeyFile,
	})
	if err != nil {
		log.Warn("loading gemini api key; enrichment degrades to heuristics",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, g.Model)
	if err != nil {
		log.Warn("creating gemini client; enrichment degrades to heuristics", zap.Error(err))
		return nil
	}

	log.Info("external enrichment enabled", zap.String("model", generator.Model()))
	return gemini.NewCollaborator(generator, log, g.MaxLogLength)
}

// loadInputs reads one raw skill per line. A requirement line may carry
// optional context text after a tab. Blank lines and '#' comments are kept
// out of the batch here; empty names inside the batch are the enricher's
// problem.
func loadInputs(path string) ([]enrich.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open skill list: %w", err)
	}
	defer f.Close()

	var inputs []enrich.Input
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, contextText, _ := strings.Cut(line, "\t")
		inputs = append(inputs, enrich.Input{
			Name:    strings.TrimSpace(name),
			Context: strings.TrimSpace(contextText),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read skill list: %w", err)
	}

	return inputs, nil
}

func parseAdjacency(pairs []string, log *zap.Logger) [][2]taxonomy.Category {
	var out [][2]taxonomy.Category
	for _, pair := range pairs {
		left, right, ok := strings.Cut(pair, ":")
		if !ok {
			log.Warn("ignoring malformed adjacency pair", zap.String("pair", pair))
			continue
		}
		a := taxonomy.Category(strings.TrimSpace(left))
		b := taxonomy.Category(strings.TrimSpace(right))
		if !taxonomy.Valid(a) || !taxonomy.Valid(b) {
			log.Warn("ignoring adjacency pair with unknown category", zap.String("pair", pair))
			continue
		}
		out = append(out, [2]taxonomy.Category{a, b})
	}
	return out
}

func writeReport(doc *output, filename string) error {
	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, pretty, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
