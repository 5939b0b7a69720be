package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/cognicore/docsim/internal/cli"
	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/embed"
)

type options struct {
	configPath string
	label      string
	text       string
	topN       int
	modelID    string
}

func main() {
	_ = godotenv.Load(".env")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, nil, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("docsim-query", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", cli.DefaultConfigPath(), "Config file (default $DOCSIM_CONFIG, or built-in defaults)")
	fs.StringVar(&opts.label, "label", "", "Find documents similar to this trained label")
	fs.StringVar(&opts.text, "text", "", "Find documents similar to this free text")
	fs.IntVar(&opts.topN, "topn", 0, "Number of results (default query.top_n)")
	fs.StringVar(&opts.modelID, "model-id", "", "Model to query (default latest)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch {
	case opts.label == "" && opts.text == "":
		return options{}, errors.New("one of -label or -text is required")
	case opts.label != "" && opts.text != "":
		return options{}, errors.New("-label and -text are mutually exclusive")
	case opts.topN < 0:
		return options{}, errors.New("-topn must not be negative")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, factory analyzer.Factory, out io.Writer) error {
	cfg, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := cli.Logger("docsim-query", cfg)
	if err != nil {
		return err
	}

	engine, cleanup, err := cli.BuildEngine(ctx, cfg, logger, factory)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := engine.Load(ctx, opts.modelID)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	topN := opts.topN
	if topN == 0 {
		topN = cfg.Query.TopN
	}

	var sims []embed.Similarity
	if opts.label != "" {
		sims, err = engine.Similar(ctx, opts.label, topN)
	} else {
		sims, err = engine.SimilarText(ctx, opts.text, topN)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "model %s (%d documents)\n", info.ID, info.Docs)
	if len(sims) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for i, s := range sims {
		fmt.Fprintf(out, "%3d. %-32s %.4f\n", i+1, s.Label, s.Score)
	}
	return nil
}
