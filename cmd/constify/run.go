package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kvarga/constify/internal/analysis"
	"github.com/kvarga/constify/internal/cxx"
	"github.com/kvarga/constify/internal/fileproc"
	"github.com/kvarga/constify/internal/output"
	"github.com/kvarga/constify/internal/progress"
	"github.com/kvarga/constify/internal/report"
	"github.com/kvarga/constify/internal/scanner"
	"github.com/kvarga/constify/pkg/config"
	"github.com/kvarga/constify/pkg/parser"
)

// runAnalysis is the shared pipeline behind every command: discover files,
// analyze each translation unit in parallel, merge the diagnostics, render.
func runAnalysis(c *cli.Context, mode analysis.Mode) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := scanner.NewScanner(cfg).Collect(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no C or C++ sources found under %v", paths)
	}

	formatter, err := output.NewFormatter(
		output.ParseFormat(cfg.Output.Format),
		c.String("output"),
		cfg.Output.Color,
	)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var tracker *progress.Tracker
	var onProgress fileproc.ProgressFunc
	if cfg.Output.Verbose {
		tracker = progress.NewTracker("analyzing", len(files))
		onProgress = tracker.Tick
	}

	var procErrs fileproc.ProcessingErrors
	perFile := fileproc.MapFiles(files, cfg.Analysis.Jobs,
		func(psr *parser.Parser, path string) ([]report.Diagnostic, error) {
			return analyzeFile(psr, path, mode, cfg)
		},
		onProgress,
		procErrs.Add,
	)
	if tracker != nil {
		tracker.FinishSuccess()
	}

	var diags []report.Diagnostic
	for _, d := range perFile {
		diags = append(diags, d...)
	}
	if err := formatter.Output(output.NewDiagnosticList(diags)); err != nil {
		return err
	}
	if mode == analysis.ModePseudoConstness && formatter.Format() == output.FormatText {
		if err := summaryTable(diags, len(files)).RenderText(formatter.Writer(), formatter.Colored()); err != nil {
			return err
		}
	}

	if procErrs.HasErrors() {
		for _, pe := range procErrs.Errors {
			fmt.Fprintf(os.Stderr, "constify: skipped %v\n", pe)
		}
	}
	return nil
}

// summaryTable tallies the check verdicts by kind.
func summaryTable(diags []report.Diagnostic, fileCount int) *output.Table {
	var constVars, constFns, staticFns int
	for _, d := range diags {
		switch {
		case strings.HasPrefix(d.Message, "variable"):
			constVars++
		case strings.HasSuffix(d.Message, "const"):
			constFns++
		case strings.HasSuffix(d.Message, "static"):
			staticFns++
		}
	}
	return output.NewTable("Summary",
		[]string{"Finding", "Count"},
		[][]string{
			{"variables that could be const", fmt.Sprint(constVars)},
			{"methods that could be const", fmt.Sprint(constFns)},
			{"methods that could be static", fmt.Sprint(staticFns)},
		},
		[]string{"files analyzed", fmt.Sprint(fileCount)},
		nil,
	)
}

// analyzeFile parses and elaborates one translation unit and runs the
// selected analysis mode over it.
func analyzeFile(psr *parser.Parser, path string, mode analysis.Mode, cfg *config.Config) ([]report.Diagnostic, error) {
	res, err := psr.ParseFile(path)
	if err != nil {
		return nil, err
	}
	unit, err := cxx.Elaborate(res)
	if err != nil {
		return nil, err
	}

	classifier := analysis.ClassifierReceiver
	if cfg.Analysis.Classifier == "counting" {
		classifier = analysis.ClassifierCounting
	}

	diags := report.NewSet(path)
	analysis.New(mode, classifier).Run(unit, diags)
	return diags.Diagnostics(), nil
}
