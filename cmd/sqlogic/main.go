package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// CLI represents the command-line interface
var CLI struct {
	Config   string      `help:"Configuration file path" default:"sqlogic.yaml"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	NoColor  bool        `help:"Disable colored output"`
	Run      RunCmd      `cmd:"" help:"Run SQL logic test scripts"`
	Validate ValidateCmd `cmd:"" help:"Parse test scripts without executing them"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Println("sqlogic v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	if CLI.NoColor {
		color.NoColor = true
	}

	// Create context with config path
	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		// Test failures are already reported through the summary
		if !errors.Is(err, ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}
