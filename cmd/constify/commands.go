package main

import (
	"github.com/urfave/cli/v2"

	"github.com/kvarga/constify/internal/analysis"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report pseudo-const variables and pseudo-const/static methods",
		ArgsUsage: "[paths...]",
		Action: func(c *cli.Context) error {
			return runAnalysis(c, analysis.ModePseudoConstness)
		},
	}
}

func changesCommand() *cli.Command {
	return &cli.Command{
		Name:      "changes",
		Usage:     "Note every recorded mutation per function body",
		ArgsUsage: "[paths...]",
		Action: func(c *cli.Context) error {
			return runAnalysis(c, analysis.ModeVariableChanges)
		},
	}
}

func usagesCommand() *cli.Command {
	return &cli.Command{
		Name:      "usages",
		Usage:     "Note every recorded reference per function body",
		ArgsUsage: "[paths...]",
		Action: func(c *cli.Context) error {
			return runAnalysis(c, analysis.ModeVariableUsages)
		},
	}
}

func variablesCommand() *cli.Command {
	return &cli.Command{
		Name:      "variables",
		Usage:     "Note every variable visible in each function or method",
		ArgsUsage: "[paths...]",
		Action: func(c *cli.Context) error {
			return runAnalysis(c, analysis.ModeVariableDeclaration)
		},
	}
}

func functionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "functions",
		Usage:     "Note every function and method definition",
		ArgsUsage: "[paths...]",
		Action: func(c *cli.Context) error {
			return runAnalysis(c, analysis.ModeFunctionDeclaration)
		},
	}
}
