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
	"github.com/sirupsen/logrus"

	"github.com/cognicore/docsim/internal/cli"
	"github.com/cognicore/docsim/internal/corpus"
	"github.com/cognicore/docsim/pkg/docsim"
	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/config"
	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

type options struct {
	configPath string
	corpusDir  string
	modelPath  string
	probe      string
	fromStore  bool
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
	fs := flag.NewFlagSet("docsim-train", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", cli.DefaultConfigPath(), "Config file (default $DOCSIM_CONFIG, or built-in defaults)")
	fs.StringVar(&opts.corpusDir, "corpus", "", "Corpus directory (overrides corpus.dir)")
	fs.StringVar(&opts.modelPath, "model", "", "Model database path (overrides model.path)")
	fs.StringVar(&opts.probe, "probe", "", "Print the neighbors of this label after training")
	fs.BoolVar(&opts.fromStore, "from-store", false, "Retrain from the stored token sequences instead of the corpus directory")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(ctx context.Context, opts options, factory analyzer.Factory, out io.Writer) error {
	cfg, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.corpusDir != "" {
		cfg.Corpus.Dir = opts.corpusDir
	}
	if opts.modelPath != "" {
		cfg.Model.Path = opts.modelPath
	}

	logger, err := cli.Logger("docsim-train", cfg)
	if err != nil {
		return err
	}

	engine, cleanup, err := cli.BuildEngine(ctx, cfg, logger, factory)
	if err != nil {
		return err
	}
	defer cleanup()

	var info store.ModelInfo
	if opts.fromStore {
		info, err = engine.Retrain(ctx)
	} else {
		info, err = trainCorpus(ctx, engine, cfg.Corpus, logger)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "model %s: %d documents, %d words, saved to %s\n", info.ID, info.Docs, info.Words, cfg.Model.Path)

	if opts.probe == "" {
		return nil
	}
	sims, err := engine.Similar(ctx, opts.probe, cfg.Query.TopN)
	if err != nil {
		return fmt.Errorf("probe %s: %w", opts.probe, err)
	}
	printSimilar(out, opts.probe, sims)
	return nil
}

func trainCorpus(ctx context.Context, engine *docsim.Engine, c config.Corpus, logger *logrus.Entry) (store.ModelInfo, error) {
	paths, err := corpus.Discover(c.Dir, c.Pattern)
	if err != nil {
		return store.ModelInfo{}, err
	}
	logger.WithField("files", len(paths)).Info("corpus discovered")

	return engine.Train(ctx, corpus.Load(paths, logger))
}

func printSimilar(out io.Writer, label string, sims []embed.Similarity) {
	fmt.Fprintf(out, "\nMost similar to %s:\n", label)
	for i, s := range sims {
		fmt.Fprintf(out, "%3d. %-32s %.4f\n", i+1, s.Label, s.Score)
	}
}
