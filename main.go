package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tokenplane/api"
	"tokenplane/config"
	"tokenplane/export"
	"tokenplane/host"
	"tokenplane/model"
	"tokenplane/storage"
	"tokenplane/stylesheet"
)

//go:embed web
var webFS embed.FS

var (
	dataDir      string
	listen       string
	listenPort   int
	documentPath string
	outPath      string
	appVersion   = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "tokenplane",
	Short: "tokenplane – design token export service",
	Long:  "Tokenplane resolves color variables from a design tool's variable document and exports them as a Tailwind stylesheet, over a web trigger UI or the CLI.",
	Run:   run,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run a one-shot export",
	Long:  "Resolve the variable document and write the generated stylesheet to stdout or a file, without starting the server.",
	Run:   runExportOnce,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Manage tokenplane configuration files.",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a default configuration file",
	Long:  "Generate a default tokenplane.config file in the specified data directory (or current directory if not specified).",
	Run:   runConfigGenerate,
}

func init() {
	wd, _ := os.Getwd()
	rootCmd.Version = appVersion
	rootCmd.Flags().StringVar(&dataDir, "data-dir", wd, "Data directory (default: current directory)")
	rootCmd.Flags().StringVar(&listen, "listen", "all", "IP address to listen on (default: all)")
	rootCmd.Flags().IntVar(&listenPort, "listen-port", 8080, "Port to listen on (default: 8080)")
	rootCmd.Flags().StringVar(&documentPath, "document", "", "Path to the variable document (overrides config)")

	exportCmd.Flags().StringVar(&documentPath, "document", "variables.json", "Path to the variable document")
	exportCmd.Flags().StringVar(&outPath, "out", "", "Write the stylesheet to this file instead of stdout")

	configGenerateCmd.Flags().StringVar(&dataDir, "data-dir", wd, "Data directory where config file will be created (default: current directory)")
	configCmd.AddCommand(configGenerateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func run(cmd *cobra.Command, args []string) {
	// Load config from data-dir
	cfg, err := config.Load(dataDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Override config with CLI flags only if they were explicitly provided
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	} else if cfg.DataDir != "" && cfg.DataDir != "." {
		dataDir = cfg.DataDir
		cfg.DataDir = dataDir
	}

	if cmd.Flags().Changed("listen") || cmd.Flags().Changed("listen-port") {
		if listen != "" && listen != "all" {
			cfg.ListenAddr = fmt.Sprintf("%s:%d", listen, listenPort)
		} else {
			// Listen on all interfaces
			cfg.ListenAddr = fmt.Sprintf(":%d", listenPort)
		}
	}
	if cmd.Flags().Changed("document") {
		cfg.DocumentPath = documentPath
	}

	// Ensure data directory exists and is absolute
	dataDirAbs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		log.Fatalf("resolve data dir: %v", err)
	}
	cfg.DataDir = dataDirAbs
	if !filepath.IsAbs(cfg.DocumentPath) {
		cfg.DocumentPath = filepath.Join(cfg.DataDir, cfg.DocumentPath)
	}

	store := storage.New(cfg.DataDir)
	if err := store.EnsureDirs(); err != nil {
		log.Fatalf("ensure data dir: %v", err)
	}

	// One run = load the current document snapshot, resolve, render,
	// persist. The document is re-read per run so a refreshed snapshot
	// is picked up without restarting.
	runAndSave := func(ctx context.Context, progress func(stage string, message string)) (*model.ExportRecord, error) {
		doc, err := host.LoadDocument(cfg.DocumentPath)
		if err != nil {
			return nil, err
		}

		runner := export.NewRunner(doc, export.LogSink{})
		result, err := runner.RunWithProgress(ctx, progress)
		if err != nil {
			return nil, err
		}

		rec := &model.ExportRecord{
			ID:             generateID(),
			Timestamp:      time.Now().UTC(),
			CollectionName: result.CollectionName,
			VariableCount:  len(result.Variables),
			CSS:            stylesheet.Render(result),
		}
		if err := store.SaveExport(rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiServer := api.NewServer(store, runAndSave)

	mux := http.NewServeMux()
	apiServer.Register(mux)

	// Trigger UI
	indexHTML, err := webFS.ReadFile("web/index.html")
	if err != nil {
		log.Fatalf("read index.html: %v", err)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	printListeningAddresses(cfg.ListenAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func runExportOnce(cmd *cobra.Command, args []string) {
	doc, err := host.LoadDocument(documentPath)
	if err != nil {
		log.Fatalf("load document: %v", err)
	}

	runner := export.NewRunner(doc, export.LogSink{})
	result, err := runner.Run(cmd.Context())
	if err != nil {
		log.Fatalf("export: %v", err)
	}

	css := stylesheet.Render(result)
	if outPath == "" {
		fmt.Print(css)
		return
	}
	if err := os.WriteFile(outPath, []byte(css), 0o644); err != nil {
		log.Fatalf("write stylesheet: %v", err)
	}
	log.Printf("exported %d variables from %q to %s", len(result.Variables), result.CollectionName, outPath)
}

func runConfigGenerate(cmd *cobra.Command, args []string) {
	// Ensure data directory exists and is absolute
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		log.Fatalf("resolve data dir: %v", err)
	}

	// Create default config
	cfg := config.Default()
	cfg.DataDir = dataDirAbs

	// Check if config file already exists
	cfgPath := filepath.Join(dataDirAbs, "tokenplane.config")
	if _, err := os.Stat(cfgPath); err == nil {
		log.Fatalf("config file already exists: %s", cfgPath)
	}

	// Save default config
	if err := config.Save(cfg); err != nil {
		log.Fatalf("failed to save config: %v", err)
	}

	fmt.Printf("Generated default config file: %s\n", cfgPath)
}

func printListeningAddresses(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Printf("listening on http://%s", addr)
		return
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		// Listening on all interfaces
		addrs, err := net.InterfaceAddrs()
		if err == nil {
			log.Println("listening on:")
			for _, a := range addrs {
				if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
					if ipnet.IP.To4() != nil {
						log.Printf("  http://%s:%s", ipnet.IP.String(), port)
					}
				}
			}
			// Also show localhost
			log.Printf("  http://localhost:%s", port)
			log.Printf("  http://127.0.0.1:%s", port)
		} else {
			log.Printf("listening on http://0.0.0.0:%s", port)
		}
	} else {
		log.Printf("listening on http://%s:%s", host, port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
