// constify finds missed const and static opportunities in C++ sources:
// variables that are never mutated, methods that never mutate their object,
// and methods that never touch their object at all.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/kvarga/constify/internal/analysis"
	"github.com/kvarga/constify/pkg/config"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "constify",
		Usage:   "Find missed const and static opportunities in C++ code",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: constify.toml in cwd)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file instead of stdout",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of files analyzed in parallel (0 = one per CPU)",
			},
			&cli.StringFlag{
				Name:  "classifier",
				Usage: "Method classifier: receiver, counting",
			},
			&cli.BoolFlag{
				Name:  "include-headers",
				Usage: "Also analyze header files as translation units",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print per-file progress information",
			},
		},
		Commands: []*cli.Command{
			checkCommand(),
			changesCommand(),
			usagesCommand(),
			variablesCommand(),
			functionsCommand(),
		},
		// Bare invocation with paths behaves like check.
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return cli.ShowAppHelp(c)
			}
			return runAnalysis(c, analysis.ModePseudoConstness)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: the file pointed to by
// --config, else the first constify.{toml,yaml,yml,json} found, else defaults.
// Command-line flags override the file.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.IsSet("jobs") {
		cfg.Analysis.Jobs = c.Int("jobs")
	}
	if c.IsSet("classifier") {
		cfg.Analysis.Classifier = c.String("classifier")
	}
	if c.IsSet("include-headers") {
		cfg.Analysis.IncludeHeaders = c.Bool("include-headers")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}

	switch cfg.Analysis.Classifier {
	case "", "receiver", "counting":
	default:
		return nil, fmt.Errorf("unknown classifier %q (want receiver or counting)", cfg.Analysis.Classifier)
	}
	return cfg, nil
}
