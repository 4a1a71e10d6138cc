// Command ycpswasyn builds and serves the records of a register tree.
//
// The register tree is read from its YAML description. Every register below
// the root becomes one or more records bound to a parameter port; streams
// get reader tasks publishing their frames.
//
// Usage:
//
//	ycpswasyn [flags]
//
// Flags:
//
//	-config string      Driver configuration file (YAML)
//	-yaml string        Register-tree description
//	-root string        Sub-path traversal starts from
//	-ip string          Target address override (IPv4 or mdns:<instance>)
//	-port string        Parameter port name
//	-prefix string      Record name prefix
//	-dict string        General substitution dictionary
//	-top-dict string    Top substitution dictionary
//	-record-dict string Explicit path to record name list
//	-diag-dir string    Directory for regMap.txt, pvList.txt and keysNotFound.txt
//	-event-log string   CBOR event log file
//	-db string          Write the record database to this file
//	-metrics string     Serve Prometheus metrics on this address
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-interactive        Start the operator console
//
// Examples:
//
//	# Build records for a carrier with a generated database
//	ycpswasyn -yaml 000TopLevel.yaml -prefix ATCA:SYS2 -db atca.db
//
//	# Resolve the target with mDNS and serve metrics
//	ycpswasyn -config atca.yaml -ip mdns:crate1 -metrics :9102 -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ycpswasyn/ycpswasyn-go/cmd/ycpswasyn/interactive"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/asyn"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/discovery"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/driver"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/metrics"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/version"
)

// Options holds the command-line settings that are not part of
// driver.Config.
type Options struct {
	ConfigFile   string
	DBFile       string
	MetricsAddr  string
	LogLevel     string
	Interactive  bool
	MDNSIface    string
	ShutdownWait time.Duration
}

var (
	opts      Options
	overrides driver.Config
)

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Driver configuration file (YAML)")
	flag.StringVar(&opts.DBFile, "db", "", "Write the record database to this file")
	flag.StringVar(&opts.MetricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the operator console")
	flag.StringVar(&opts.MDNSIface, "mdns-iface", "", "Network interface for mdns: address overrides")
	flag.DurationVar(&opts.ShutdownWait, "shutdown-wait", 2*time.Second, "Time to wait for stream tasks on exit")

	flag.StringVar(&overrides.YAMLDoc, "yaml", "", "Register-tree description")
	flag.StringVar(&overrides.Root, "root", "", "Sub-path traversal starts from")
	flag.StringVar(&overrides.IPAddr, "ip", "", "Target address override (IPv4 or mdns:<instance>)")
	flag.StringVar(&overrides.PortName, "port", "", "Parameter port name")
	flag.StringVar(&overrides.RecordPrefix, "prefix", "", "Record name prefix")
	flag.IntVar(&overrides.RecordNameLenMax, "name-len-max", 0, "Maximum record name length")
	flag.StringVar(&overrides.DictFile, "dict", "", "General substitution dictionary")
	flag.StringVar(&overrides.TopDictFile, "top-dict", "", "Top substitution dictionary")
	flag.StringVar(&overrides.RecordDictFile, "record-dict", "", "Explicit path to record name list")
	flag.StringVar(&overrides.DiagDir, "diag-dir", "", "Directory for diagnostic files")
	flag.StringVar(&overrides.EventLog, "event-log", "", "CBOR event log file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ycpswasyn [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	setupLogging(opts.LogLevel)

	log.Printf("ycpswasyn %s", version.Version)

	cfg, err := buildConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.Logger = newLogger(opts.LogLevel)

	tree, err := cpsw.LoadTree(cfg.YAMLDoc)
	if err != nil {
		log.Fatalf("Failed to load register tree: %v", err)
	}

	port := asyn.NewPort(cfg.PortName, record.NumClasses)
	drv, err := driver.New(cfg, tree, port)
	if err != nil {
		log.Fatalf("Failed to create driver: %v", err)
	}
	port.SetHandler(drv)
	defer drv.Close()

	m := metrics.New(cfg.PortName)
	drv.SetMetrics(m)
	if strings.HasPrefix(cfg.IPAddr, discovery.MDNSScheme) {
		drv.SetBrowser(discovery.NewMDNSBrowser(discovery.BrowserConfig{Interface: opts.MDNSIface}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summary, err := drv.Init(ctx)
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	log.Printf("Port %s: %s", cfg.PortName, summary)

	if opts.DBFile != "" {
		if err := writeDatabase(port, opts.DBFile); err != nil {
			log.Fatalf("Failed to write database: %v", err)
		}
		log.Printf("Database written to %s", opts.DBFile)
	}

	var srv *http.Server
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv = &http.Server{Addr: opts.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server: %v", err)
			}
		}()
		log.Printf("Metrics on %s/metrics", opts.MetricsAddr)
	}

	if opts.Interactive {
		root, err := consoleRoot(tree, cfg.Root)
		if err != nil {
			log.Fatalf("Invalid root: %v", err)
		}
		console := interactive.New(port, drv, tree, root)
		if err := console.Attach(); err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(console.Stdout())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	tree.Interrupt()
	done := make(chan struct{})
	go func() {
		drv.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(opts.ShutdownWait):
		log.Println("Warning: stream tasks still running")
	}

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancelShutdown()
	}
	log.Println("Goodbye!")
}

// buildConfig loads the configuration file and applies the flags the user
// set on top of it.
func buildConfig() (driver.Config, error) {
	cfg := driver.DefaultConfig()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = driver.LoadConfig(opts.ConfigFile); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "yaml":
			cfg.YAMLDoc = overrides.YAMLDoc
		case "root":
			cfg.Root = overrides.Root
		case "ip":
			cfg.IPAddr = overrides.IPAddr
		case "port":
			cfg.PortName = overrides.PortName
		case "prefix":
			cfg.RecordPrefix = overrides.RecordPrefix
		case "name-len-max":
			cfg.RecordNameLenMax = overrides.RecordNameLenMax
		case "dict":
			cfg.DictFile = overrides.DictFile
		case "top-dict":
			cfg.TopDictFile = overrides.TopDictFile
		case "record-dict":
			cfg.RecordDictFile = overrides.RecordDictFile
		case "diag-dir":
			cfg.DiagDir = overrides.DiagDir
		case "event-log":
			cfg.EventLog = overrides.EventLog
		}
	})

	if cfg.YAMLDoc == "" {
		return cfg, errors.New("register-tree description (-yaml) is required")
	}
	return cfg, cfg.Validate()
}

func consoleRoot(tree *cpsw.MemTree, root string) (cpsw.Path, error) {
	if root == "" {
		return tree.Root(), nil
	}
	return cpsw.ParsePath(root)
}

func writeDatabase(port *asyn.Port, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := port.WriteDatabase(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// newLogger returns the structured logger handed to the driver.
func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
