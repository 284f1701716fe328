package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rustex/internal/analysis"
	"rustex/internal/config"
	"rustex/internal/crawler"
	"rustex/internal/git"
	"rustex/internal/graph"
	"rustex/internal/index"
	"rustex/internal/knowledge"
	"rustex/internal/plugin"
	"rustex/internal/render"
	"rustex/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rustex",
		Short: "Static analysis and code intelligence for Rust crates",
	}
	dbPath     string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the SQLite analysis database (default from config)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel analysis workers (default from config, 0 = NumCPU)")
	generateCmd.Flags().StringSliceVar(&generateFormats, "format", []string{"markdown", "graphql", "json", "chunks"}, "Output formats to render")
	generateCmd.Flags().BoolVar(&generateEmbed, "embed", false, "Embed retrieval chunks into the database")
	generateCmd.Flags().BoolVar(&generateAnnotate, "annotate", false, "Write AI summaries into hotspot element metadata before rendering")
	impactCmd.Flags().StringVar(&impactBase, "base", "HEAD", "Git ref to diff against")
	searchCmd.Flags().IntVar(&searchTopK, "top", 5, "Number of results to show")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(searchCmd)
}

var (
	scanWorkers      int
	generateFormats  []string
	generateEmbed    bool
	generateAnnotate bool
	impactBase       string
	searchTopK       int
)

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func storePath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.Storage.Path
}

func openStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(storePath(cfg))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return store
}

func loadProject(ctx context.Context, store *storage.SQLiteStore) *graph.Project {
	fmt.Println("🔄 Loading analysis model...")
	project, err := store.LoadProject(ctx)
	if err != nil {
		log.Fatalf("Failed to load project (run 'rustex scan' first): %v", err)
	}
	return project
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (knowledge.Embedder, error) {
	return knowledge.NewEmbedder(ctx, knowledge.EmbedderOptions{
		Provider:  cfg.AI.Provider,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		Dimension: cfg.AI.Dimension,
		BaseURL:   cfg.AI.BaseURL,
	})
}

func buildSummarizer(ctx context.Context, cfg *config.Config) (knowledge.Summarizer, error) {
	if cfg.AI.APIKey == "" && strings.ToLower(cfg.AI.Provider) != "ollama" {
		return nil, fmt.Errorf("AI API key not configured")
	}
	return knowledge.NewSummarizer(ctx, knowledge.SummarizerOptions{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.SummaryModel,
		BaseURL:  cfg.AI.BaseURL,
	})
}

func pluginRunner(cfg *config.Config) *plugin.Runner {
	var plugins []plugin.Plugin
	for _, name := range cfg.Plugins {
		switch name {
		case "hotspots":
			plugins = append(plugins, plugin.NewHotspots(5))
		case "deadcode":
			plugins = append(plugins, plugin.NewDeadCode())
		case "doccoverage":
			plugins = append(plugins, plugin.NewDocCoverage())
		default:
			fmt.Printf("⚠️  Unknown plugin %q, skipping.\n", name)
		}
	}
	return plugin.NewRunner(plugins...)
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Analyze a Rust crate and save the model to the local database",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			log.Fatalf("Failed to resolve path %s: %v", root, err)
		}

		fmt.Printf("📂 Scanning crate: %s\n", absRoot)

		extract, err := cfg.ExtractOptions()
		if err != nil {
			log.Fatalf("Invalid extraction config: %v", err)
		}
		workers := cfg.Analysis.Workers
		if scanWorkers > 0 {
			workers = scanWorkers
		}

		cr := crawler.New(crawler.Options{
			Include: cfg.Discovery.Include,
			Exclude: cfg.Discovery.Exclude,
		})
		ix := index.NewIndexer(cr, index.Config{
			Workers:              workers,
			FailureRateThreshold: cfg.Analysis.FailureRateThreshold,
			Extract:              extract,
		})

		fmt.Println("🚀 Analyzing sources...")
		ctx := context.Background()
		project, report, err := ix.Run(ctx, absRoot)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		for _, fe := range report.Errors {
			fmt.Printf("⚠️  %s: %s\n", fe.Path, fe.Message)
		}
		fmt.Printf("✅ Analyzed %d/%d files in %v. Found %d elements, %d references.\n",
			report.Succeeded, report.TotalFiles, report.Duration.Round(time.Millisecond),
			len(project.Elements), len(project.References))

		pctx, stages := pluginRunner(cfg).Run(project)
		for _, stage := range stages {
			if stage.Err != nil {
				fmt.Printf("⚠️  Plugin %s failed: %v\n", stage.Plugin, stage.Err)
			}
		}
		printFindings(pctx.Findings())

		store := openStore(cfg)
		defer store.Close()
		fmt.Println("💾 Saving analysis model...")
		if err := store.SaveProject(ctx, project); err != nil {
			log.Fatalf("Failed to save project: %v", err)
		}
		fmt.Printf("🎉 Scan complete! Database: %s\n", storePath(cfg))
	},
}

func printFindings(findings []plugin.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("🔍 %d findings:\n", len(findings))
	for _, f := range findings {
		fmt.Printf("  [%s] %s\n", f.Plugin, f.Message)
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render analysis outputs from the stored model",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		project := loadProject(ctx, store)
		outDir := cfg.Output.Dir

		formats := make(map[string]bool, len(generateFormats))
		for _, f := range generateFormats {
			formats[strings.ToLower(strings.TrimSpace(f))] = true
		}

		var summarizer knowledge.Summarizer
		if generateAnnotate {
			s, err := buildSummarizer(ctx, cfg)
			if err != nil {
				fmt.Printf("⚠️  Skipping AI annotation: %v\n", err)
			} else {
				summarizer = s
			}
		}

		if formats["markdown"] {
			fmt.Println("📄 Rendering markdown...")
			gen := render.NewMarkdownGenerator(project, summarizer)
			if err := gen.Generate(ctx, outDir); err != nil {
				log.Fatalf("Failed to render markdown: %v", err)
			}
		}
		if formats["graphql"] {
			fmt.Println("🕸️  Exporting GraphQL schema and data...")
			if err := render.NewGraphQLExporter(project).Export(outDir); err != nil {
				log.Fatalf("Failed to export GraphQL: %v", err)
			}
		}
		exporter := render.NewExporter(project)
		if formats["json"] {
			fmt.Println("🗃️  Exporting project JSON...")
			if err := exporter.ExportJSON(outDir); err != nil {
				log.Fatalf("Failed to export JSON: %v", err)
			}
		}
		if formats["chunks"] {
			fmt.Println("🧩 Exporting retrieval chunks...")
			if err := exporter.ExportChunks(outDir); err != nil {
				log.Fatalf("Failed to export chunks: %v", err)
			}
		}

		if generateEmbed {
			embedder, err := buildEmbedder(ctx, cfg)
			if err != nil {
				log.Fatalf("Failed to create embedder: %v", err)
			}
			fmt.Println("🧠 Embedding chunks into the database...")
			engine := knowledge.NewEngine(project, embedder, store)
			count, err := engine.IndexAll(ctx)
			if err != nil {
				log.Fatalf("Embedding failed: %v", err)
			}
			fmt.Printf("✅ Embedded %d chunks.\n", count)
		}

		fmt.Printf("🎉 Generation complete! Output: %s\n", outDir)
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Report elements affected by changes since a git ref",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		absRoot, err := filepath.Abs(cfg.Project.Root)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		changes, err := git.ChangedFiles(absRoot, impactBase)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		changes = rebaseChanges(absRoot, changes)
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		store := openStore(cfg)
		defer store.Close()
		project := loadProject(ctx, store)

		report := analysis.NewAnalyzer(project).Analyze(changes)
		if report.Empty() {
			fmt.Println("✅ No analyzed elements touched by these changes.")
			return
		}

		fmt.Printf("🔍 %d elements directly affected:\n", len(report.Direct))
		for _, e := range report.Direct {
			fmt.Printf("  %s (%s) %s:%d\n", e.Hierarchy.QualifiedName, e.ElementType, e.Location.File, e.Location.StartLine)
		}
		if len(report.Indirect) > 0 {
			fmt.Printf("↪️  %d elements indirectly affected (dependents):\n", len(report.Indirect))
			for _, e := range report.Indirect {
				fmt.Printf("  %s (%s) %s:%d\n", e.Hierarchy.QualifiedName, e.ElementType, e.Location.File, e.Location.StartLine)
			}
		}
	},
}

// rebaseChanges rewrites repo-relative diff paths to crate-relative ones,
// dropping files outside the crate root.
func rebaseChanges(crateRoot string, changes []git.ChangedFile) []git.ChangedFile {
	toplevel, err := git.Toplevel(crateRoot)
	if err != nil || filepath.Clean(toplevel) == filepath.Clean(crateRoot) {
		return changes
	}
	var out []git.ChangedFile
	for _, ch := range changes {
		rel, err := filepath.Rel(crateRoot, filepath.Join(toplevel, ch.Path))
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		ch.Path = filepath.ToSlash(rel)
		out = append(out, ch)
	}
	return out
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over embedded chunks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		project := loadProject(ctx, store)

		embedder, err := buildEmbedder(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create embedder: %v", err)
		}
		engine := knowledge.NewEngine(project, embedder, store)

		results, err := engine.SearchByText(ctx, args[0], searchTopK, "")
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No matches. Run 'rustex generate --embed' first to index the crate.")
			return
		}
		for i, chunk := range results {
			fmt.Printf("%d. %s (%s) %s\n", i+1, chunk.QualifiedName, chunk.ElementType, chunk.File)
			if chunk.Signature != "" {
				fmt.Printf("   %s\n", chunk.Signature)
			}
			if chunk.Doc != "" {
				fmt.Printf("   %s\n", chunk.Doc)
			}
		}
	},
}
