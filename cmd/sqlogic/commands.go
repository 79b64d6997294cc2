package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/fatih/color"

	"github.com/sqlogic/sqlogic"
	"github.com/sqlogic/sqlogic/adapter"
	"github.com/sqlogic/sqlogic/runner"
	"github.com/sqlogic/sqlogic/script"
)

// Sentinel errors
var (
	ErrNoScriptFiles    = errors.New("no test script files given")
	ErrValidationFailed = errors.New("one or more scripts failed to parse")
	ErrTestsFailed      = errors.New("one or more directives did not pass")
)

// RunCmd represents the run command
type RunCmd struct {
	Paths       []string `arg:"" help:"Test script files to run" type:"existingfile"`
	Environment string   `help:"Database environment to use from config" short:"e" default:"development"`
	Workers     int      `help:"Number of parallel script workers" default:"0"` // 0 means use CPU count
	Timeout     string   `help:"Per-directive timeout duration" default:""`
	Halt        bool     `help:"Stop each script at its first failing directive"`
	Report      string   `help:"Write a machine-readable YAML report to this path"`
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
	if len(cmd.Paths) == 0 {
		return ErrNoScriptFiles
	}

	// Load configuration
	config, err := sqlogic.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if config.Report.NoColor {
		color.NoColor = true
	}

	dbConfig, err := config.Environment(cmd.Environment)
	if err != nil {
		return err
	}

	options, err := cmd.buildOptions(config)
	if err != nil {
		return err
	}

	factory, err := adapter.NewDBFactory(dbConfig.Driver, dbConfig.Connection, dbConfig.Schema)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.Blue("Running %d scripts against %s (%s)", len(cmd.Paths), cmd.Environment, dbConfig.Driver)
		color.Blue("Workers: %d, directive timeout: %s", options.Workers, options.DirectiveTimeout)
	}

	// Interrupt finishes the current scripts and skips the rest
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(factory, options)

	summary, err := r.RunFiles(runCtx, cmd.Paths)
	if err != nil {
		return fmt.Errorf("test run aborted: %w", err)
	}

	if !ctx.Quiet {
		summary.PrintSummary(os.Stdout)
	}

	reportPath := cmd.Report
	if reportPath == "" {
		reportPath = config.Report.Output
	}

	if reportPath != "" {
		if err := summary.WriteReport(reportPath); err != nil {
			return err
		}

		if ctx.Verbose {
			color.Blue("Report written to %s", reportPath)
		}
	}

	// The sentinel maps to a non-zero exit code in main without cutting
	// short deferred cleanup here
	if !summary.Passed() {
		return ErrTestsFailed
	}

	return nil
}

func (cmd *RunCmd) buildOptions(config *sqlogic.Config) (*runner.Options, error) {
	options := runner.DefaultOptions()

	if config.Run.Workers > 0 {
		options.Workers = config.Run.Workers
	}

	if cmd.Workers > 0 {
		options.Workers = cmd.Workers
	}

	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}

	if config.Run.DirectiveTimeout > 0 {
		options.DirectiveTimeout = config.Run.DirectiveTimeout
	}

	if cmd.Timeout != "" {
		timeout, err := time.ParseDuration(cmd.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout duration: %w", err)
		}

		options.DirectiveTimeout = timeout
	}

	options.HaltOnFailure = config.Run.Halt || cmd.Halt

	return options, nil
}

// ValidateCmd represents the validate command
type ValidateCmd struct {
	Paths []string `arg:"" help:"Test script files to validate" type:"existingfile"`
}

// Run executes the validate command
func (cmd *ValidateCmd) Run(ctx *Context) error {
	if len(cmd.Paths) == 0 {
		return ErrNoScriptFiles
	}

	failed := 0

	for _, path := range cmd.Paths {
		sc, err := script.ParseFile(path)
		if err != nil {
			failed++

			if !ctx.Quiet {
				color.Red("%v", err)
			}

			continue
		}

		if ctx.Verbose {
			color.Green("%s: %d directives", path, len(sc.Directives))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrValidationFailed, failed, len(cmd.Paths))
	}

	if !ctx.Quiet {
		color.Green("All %d scripts parsed", len(cmd.Paths))
	}

	return nil
}
