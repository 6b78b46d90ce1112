package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contracts-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// globals shared by every subcommand
type globals struct {
	verbose bool
	ledger  string
	backend string
	catalog string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "contracts",
		Short: "Contract intake: extract documents, register contracts and build mail links",
		Long: `contracts reads rental contract documents, appends them to the shared ledger
with monthly counters, and prints the pre-filled mail link for each registration.

Configuration comes from the environment (LEDGER_BACKEND, LEDGER_PATH, DB_URL, ...)
and an optional .env file; flags override the ledger location.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&g.ledger, "ledger", "", "Ledger path (overrides LEDGER_PATH)")
	root.PersistentFlags().StringVar(&g.backend, "backend", "", "Ledger backend: xlsx, sqlite or postgres (overrides LEDGER_BACKEND)")
	root.PersistentFlags().StringVar(&g.catalog, "catalog", "", "Catalog YAML (overrides CATALOG_PATH)")

	root.AddCommand(
		newExtractCmd(g),
		newExtractDirCmd(g),
		newPreviewCmd(g),
		newRegisterCmd(g),
		newEditCmd(g),
		newCancelCmd(g),
		newListCmd(g),
		newExportCmd(g),
		newLinkCmd(g),
	)
	return root
}

func (g *globals) logger() *slog.Logger {
	l := bootstrap.NewLogger(os.Stderr, g.verbose)
	slog.SetDefault(l)
	return l
}

func (g *globals) config() *common.Config {
	cfg := common.LoadConfig()
	if g.ledger != "" {
		cfg.Ledger.Path = g.ledger
	}
	if g.backend != "" {
		cfg.Ledger.Backend = strings.ToLower(g.backend)
	}
	if g.catalog != "" {
		cfg.Catalog.Path = g.catalog
	}
	return cfg
}

func (g *globals) app(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.New(ctx, g.config(), g.logger())
}

func printResult(w io.Writer, res extract.Result) {
	for _, f := range res.Fields {
		fmt.Fprintf(w, "%s: %s\n", f.Field, res.Display(f.Field))
	}
}

// parseFields turns repeated key=value flags into a map.
func parseFields(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--field %q: expected name=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
