package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"

	"github.com/geange/optifa"
	"github.com/geange/optifa/automaton"
)

type MainConfig struct {
	*cli.Command

	Config      string `cli:"name=config aliases=c desc='yaml file with exploration settings'"`
	Regex       bool   `cli:"name=regex aliases=r desc='read the arguments as regular expressions instead of timbuk files'"`
	Length      string `cli:"name=length desc='length abstraction: exact or smt'"`
	Abstraction string `cli:"name=abstraction aliases=a desc='filters to run: combined, length, parikh or none'"`
	Forward     bool   `cli:"name=forward desc='number connectivity depths from the start state instead of from the accepting state'"`
	NoZ         bool   `cli:"name=no-z desc='drop the connectivity constraints of the parikh abstraction'"`
	NoSkip      bool   `cli:"name=no-skip desc='check single successors instead of accepting them'"`
	Break       bool   `cli:"name=break aliases=b desc='stop at the first accepting pair'"`
	Minterms    bool   `cli:"name=minterms aliases=m desc='compress the alphabet to minterms before exploring'"`
	Timeout     string `cli:"name=timeout aliases=t desc='solver timeout per query, e.g. 500ms'"`
	Unify       string `cli:"name=unify desc='comma separated symbols the parikh abstraction counts as one'"`
	Keep        string `cli:"name=keep desc='comma separated symbols the parikh abstraction keeps apart, merging all others'"`
	Verbose     bool   `cli:"name=v desc='log every explored pair'"`
	CSV         bool   `cli:"name=csv desc='print statistics as csv'"`
	Product     string `cli:"name=product aliases=o desc='write the trimmed product to this timbuk file'"`
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "optifa").
		WithSynopsis("optifa [opts] <a> <b> - decide whether two automata share a word").
		WithDescription("optifa explores the product of two automata, pruning pairs of states with length and Parikh abstractions.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *MainConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		cfg.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: expected two automata, got %d arguments", cli.ErrUsage, len(args))
	}

	exploreCfg, err := cfg.exploreConfig()
	if err != nil {
		return err
	}

	alphabet := automaton.NewAlphabet()
	var a, b *automaton.Automaton
	var namesA, namesB []string
	if cfg.Regex {
		a, b, err = readRegexps(args[0], args[1], alphabet, exploreCfg.DeterminizeWorkLimit)
	} else {
		var ta, tb *automaton.Timbuk
		if ta, err = readTimbukFile(args[0], alphabet); err == nil {
			tb, err = readTimbukFile(args[1], alphabet)
		}
		if err == nil {
			a, b = ta.Automaton, tb.Automaton
			namesA, namesB = ta.StateNames, tb.StateNames
		}
	}
	if err != nil {
		return err
	}

	switch {
	case cfg.Unify != "":
		exploreCfg.Apply(optifa.WithUnifySymbols(symbolIDs(cfg.Unify, alphabet)...), optifa.WithKeepSymbols())
	case cfg.Keep != "":
		exploreCfg.Apply(optifa.WithKeepSymbols(symbolIDs(cfg.Keep, alphabet)...), optifa.WithUnifySymbols())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := optifa.NewExplorer(a, b, exploreCfg).Explore(ctx)
	if err != nil {
		return err
	}

	printVerdict(cc.Out, res, alphabet)
	if cfg.CSV {
		if err := res.Stats.WriteCSV(cc.Out, true); err != nil {
			return err
		}
	}
	if cfg.Product != "" {
		return writeProduct(cfg.Product, res, alphabet, namesA, namesB)
	}
	return nil
}

// exploreConfig layers the flags over the config file, or over the defaults when there is none.
func (cfg *MainConfig) exploreConfig() (*optifa.Config, error) {
	c := optifa.DefaultConfig()
	if cfg.Config != "" {
		var err error
		if c, err = optifa.LoadConfig(cfg.Config); err != nil {
			return nil, err
		}
	}

	if cfg.Unify != "" && cfg.Keep != "" {
		return nil, fmt.Errorf("%w: -unify and -keep: %w", cli.ErrUsage, optifa.ErrConflictingSymbols)
	}

	var opts []optifa.Option
	if cfg.Length != "" {
		m, err := optifa.ParseLengthMode(cfg.Length)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		opts = append(opts, optifa.WithLengthMode(m))
	}
	if cfg.Abstraction != "" {
		abs, err := optifa.ParseAbstraction(cfg.Abstraction)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		opts = append(opts, optifa.WithAbstraction(abs))
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: invalid timeout %q", cli.ErrUsage, cfg.Timeout)
		}
		opts = append(opts, optifa.WithSolverTimeout(d))
	}
	if cfg.Forward {
		opts = append(opts, optifa.WithReverseLengths(false))
	}
	if cfg.NoZ {
		opts = append(opts, optifa.WithZConstraints(false))
	}
	if cfg.NoSkip {
		opts = append(opts, optifa.WithSkipSingleSuccessors(false))
	}
	if cfg.Break {
		opts = append(opts, optifa.WithBreakWhenFinal(true))
	}
	if cfg.Minterms {
		opts = append(opts, optifa.WithMinterms(true))
	}
	if cfg.Product != "" {
		opts = append(opts, optifa.WithBuildProduct(true))
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts = append(opts, optifa.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))))
	c.Apply(opts...)
	return c, nil
}

// symbolIDs resolves a comma separated list of symbol names. Names that neither automaton uses are
// dropped.
func symbolIDs(list string, alphabet *automaton.Alphabet) []int {
	var ids []int
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if id, ok := alphabet.Lookup(name); ok && name != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// readRegexps parses both expressions before building either automaton so that both see the whole
// alphabet.
func readRegexps(exprA, exprB string, alphabet *automaton.Alphabet, workLimit int) (*automaton.Automaton, *automaton.Automaton, error) {
	ra, err := automaton.NewRegExp(exprA, alphabet)
	if err != nil {
		return nil, nil, fmt.Errorf("first expression: %w", err)
	}
	rb, err := automaton.NewRegExp(exprB, alphabet)
	if err != nil {
		return nil, nil, fmt.Errorf("second expression: %w", err)
	}
	a, err := ra.ToAutomaton(workLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("first expression: %w", err)
	}
	b, err := rb.ToAutomaton(workLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("second expression: %w", err)
	}
	return a, b, nil
}

func readTimbukFile(path string, alphabet *automaton.Alphabet) (*automaton.Timbuk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := automaton.ReadTimbuk(f, alphabet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func printVerdict(w io.Writer, res *optifa.Result, alphabet *automaton.Alphabet) {
	verdict := color.RedString("empty")
	if res.Nonempty {
		verdict = color.GreenString("nonempty")
	}
	if res.BestEffort {
		verdict += " " + color.YellowString("(best effort)")
	}
	fmt.Fprintln(w, verdict)
	if res.Nonempty {
		fmt.Fprintf(w, "witness: %q\n", alphabet.Word(res.Witness, " "))
	}
	fmt.Fprintf(w, "reached %d pairs, %d accepting\n", res.Stats.Reached, res.Stats.Final)
}

func writeProduct(path string, res *optifa.Result, alphabet *automaton.Alphabet, namesA, namesB []string) error {
	names := make([]string, len(res.ProductPairs))
	for i, p := range res.ProductPairs {
		names[i] = fmt.Sprintf("%s_%s", stateName(namesA, p.A), stateName(namesB, p.B))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := automaton.WriteTimbuk(f, "product", res.Product, alphabet, names); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stateName(names []string, s int) string {
	if s < len(names) {
		return names[s]
	}
	return fmt.Sprintf("q%d", s)
}
