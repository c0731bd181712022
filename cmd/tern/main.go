package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/tern"
	"github.com/jward/tern/badgerstore"
	"github.com/jward/tern/nquads"
	"github.com/jward/tern/sqlite"
)

var (
	flagBackend string
	flagDB      string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "tern",
	Short:         "Assert, retract, and query RDF statements",
	Long:          "Tern is an RDF statement store with pattern queries, atomic changesets, and transactional multi-statement edits. Data is exchanged as N-Quads.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		switch flagBackend {
		case "sqlite", "badger":
			if flagDB == "" {
				return fmt.Errorf("--db is required with --backend %s", flagBackend)
			}
			return nil
		default:
			return fmt.Errorf("unknown backend %q (want sqlite or badger)", flagBackend)
		}
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "sqlite", "storage backend: sqlite|badger")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(queryCmd)
}

// openStore opens the configured backend. The caller must call close.
func openStore() (tern.Graph, func() error, error) {
	switch flagBackend {
	case "badger":
		s, err := badgerstore.Open(flagDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := sqlite.NewStore(flagDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}

var loadCmd = &cobra.Command{
	Use:   "load [file.nq]",
	Short: "Load N-Quads statements into the store",
	Long:  "Reads N-Quads from the given file (or stdin) and inserts the statements as one atomic changeset.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var inserts []tern.Statement
	dec := nquads.NewDecoder(in)
	for {
		st, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		inserts = append(inserts, st)
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Apply(tern.Delta{Ins: inserts}); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	slog.Debug("loaded statements", slog.Int("count", len(inserts)))
	fmt.Fprintf(os.Stdout, "loaded %d statements\n", len(inserts))
	return nil
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the whole store to stdout as N-Quads",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		enc := nquads.NewEncoder(os.Stdout)
		for st, err := range store.QueryPattern(nil) {
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			if err := enc.Encode(st); err != nil {
				return fmt.Errorf("dump: %w", err)
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := store.Count()
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		fmt.Fprintf(os.Stdout, "statements: %d\ndurable: %t\n", n, store.Durable())
		return nil
	},
}

var (
	flagSubject   string
	flagPredicate string
	flagObject    string
	flagGraph     string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Match a pattern against the store",
	Long: `Matches a statement pattern and prints each solution. Positions accept
N-Quads term syntax (<iri>, _:label, "literal") or ?name for a variable;
an omitted position matches anything. --graph accepts the special value
"default" to restrict matching to the unnamed graph.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagSubject, "subject", "", "subject constraint")
	queryCmd.Flags().StringVar(&flagPredicate, "predicate", "", "predicate constraint")
	queryCmd.Flags().StringVar(&flagObject, "object", "", "object constraint")
	queryCmd.Flags().StringVar(&flagGraph, "graph", "", "graph constraint")
}

// parsePatternTerm interprets a CLI position argument.
func parsePatternTerm(arg string) (tern.PatternTerm, error) {
	switch {
	case arg == "":
		return nil, nil
	case strings.HasPrefix(arg, "?"):
		return tern.Var(arg[1:]), nil
	default:
		t, err := nquads.ParseTerm(arg)
		if err != nil {
			return nil, err
		}
		return t.(tern.PatternTerm), nil
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	subj, err := parsePatternTerm(flagSubject)
	if err != nil {
		return fmt.Errorf("query: subject: %w", err)
	}
	pred, err := parsePatternTerm(flagPredicate)
	if err != nil {
		return fmt.Errorf("query: predicate: %w", err)
	}
	obj, err := parsePatternTerm(flagObject)
	if err != nil {
		return fmt.Errorf("query: object: %w", err)
	}
	var graph tern.PatternTerm
	if flagGraph == "default" {
		graph = tern.DefaultGraph.(tern.PatternTerm)
	} else if flagGraph != "" {
		graph, err = parsePatternTerm(flagGraph)
		if err != nil {
			return fmt.Errorf("query: graph: %w", err)
		}
	}

	pattern := tern.NewQuadPattern(subj, pred, obj, graph)
	slog.Debug("executing pattern", slog.Int("cost", pattern.Cost()))

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	n := 0
	for sol, err := range pattern.Execute(store) {
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		n++
		if sol.Len() == 0 {
			fmt.Fprintln(os.Stdout, "match")
			continue
		}
		fmt.Fprintln(os.Stdout, sol.String())
	}
	if n == 0 {
		slog.Debug("no matches")
	}
	return nil
}
