// Command yaml2edm generates EDM operator screens for a register tree.
//
// The screens address records by the names ycpswasyn gives them, behind the
// $(P) macro. Pass the same prefix, dictionaries and name limit as the
// driver.
//
// Usage:
//
//	yaml2edm [flags]
//
// Examples:
//
//	# Screens for the whole tree
//	yaml2edm -yaml 000TopLevel.yaml -prefix ATCA:SYS2 -o edm
//
//	# Screens for one bay with the driver's dictionaries
//	yaml2edm -config atca.yaml -root /mmio/AmcCarrierCore -o edm/core
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/driver"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/edm"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/naming"
)

var (
	configFile string
	yamlDoc    string
	root       string
	prefix     string
	dictFile   string
	topDict    string
	outDir     string
	nameLenMax int
	height     int
)

func init() {
	flag.StringVar(&configFile, "config", "", "Driver configuration file (YAML)")
	flag.StringVar(&yamlDoc, "yaml", "", "Register-tree description")
	flag.StringVar(&root, "root", "", "Sub-path to generate screens for")
	flag.StringVar(&prefix, "prefix", "", "Record name prefix")
	flag.StringVar(&dictFile, "dict", "", "General substitution dictionary")
	flag.StringVar(&topDict, "top-dict", "", "Top substitution dictionary")
	flag.StringVar(&outDir, "o", "edm", "Output directory")
	flag.IntVar(&nameLenMax, "name-len-max", 0, "Maximum record name length")
	flag.IntVar(&height, "height", edm.DefaultHeight, "Screen height before a new page starts")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	cfg := driver.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = driver.LoadConfig(configFile); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "yaml":
			cfg.YAMLDoc = yamlDoc
		case "root":
			cfg.Root = root
		case "prefix":
			cfg.RecordPrefix = prefix
		case "dict":
			cfg.DictFile = dictFile
		case "top-dict":
			cfg.TopDictFile = topDict
		case "name-len-max":
			cfg.RecordNameLenMax = nameLenMax
		}
	})
	if cfg.YAMLDoc == "" {
		fmt.Fprintln(os.Stderr, "Error: register-tree description (-yaml) is required")
		flag.Usage()
		os.Exit(1)
	}

	stats, err := run(context.Background(), cfg, outDir, height)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%d screens in %s (RO=%d RW=%d, %d commands and %d streams not shown)",
		stats.Screens, outDir, stats.RO, stats.RW, stats.CMD, stats.STM)
	if stats.BranchErrors > 0 {
		log.Printf("Warning: %d branches skipped", stats.BranchErrors)
	}
}

// run generates the screens for cfg into outDir.
func run(ctx context.Context, cfg driver.Config, outDir string, height int) (edm.Stats, error) {
	tree, err := cpsw.LoadTree(cfg.YAMLDoc)
	if err != nil {
		return edm.Stats{}, fmt.Errorf("load register tree: %w", err)
	}
	resolver, err := naming.LoadResolver(cfg.TopDictFile, cfg.DictFile)
	if err != nil {
		return edm.Stats{}, fmt.Errorf("load dictionaries: %w", err)
	}

	start := tree.Root()
	if cfg.Root != "" {
		if start, err = cpsw.ParsePath(cfg.Root); err != nil {
			return edm.Stats{}, fmt.Errorf("root %q: %w", cfg.Root, err)
		}
	}

	ecfg := edm.DefaultConfig()
	ecfg.OutDir = outDir
	ecfg.RecordPrefix = cfg.RecordPrefix
	ecfg.RecordNameLenMax = cfg.RecordNameLenMax
	ecfg.MaxMenu = cfg.MaxMenu
	if height > 0 {
		ecfg.Height = height
	}

	g, err := edm.NewGenerator(ecfg, tree, resolver)
	if err != nil {
		return edm.Stats{}, fmt.Errorf("screen configuration: %w", err)
	}
	return g.Generate(ctx, start)
}
