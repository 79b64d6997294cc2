// Package runner drives test scripts against an execution adapter and
// aggregates per-directive verdicts into a run summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sqlogic/sqlogic/adapter"
	"github.com/sqlogic/sqlogic/compare"
	"github.com/sqlogic/sqlogic/script"
)

// Sentinel errors
var (
	ErrDirectiveTimeout = errors.New("timeout")
	ErrSessionOpen      = errors.New("failed to open adapter session")
)

// Options contains options for test execution
type Options struct {
	// Workers bounds how many scripts execute concurrently. Directives
	// within one script always run strictly in sequence.
	Workers int
	// DirectiveTimeout bounds each adapter call; zero disables the bound.
	DirectiveTimeout time.Duration
	// HaltOnFailure stops each script at its first non-passing directive;
	// the remainder is recorded as skipped, so the run still cannot pass.
	HaltOnFailure bool
}

// DefaultOptions returns default execution options
func DefaultOptions() *Options {
	return &Options{
		Workers:          runtime.NumCPU(),
		DirectiveTimeout: 30 * time.Second,
	}
}

// ScriptResult represents the outcome of one script file
type ScriptResult struct {
	Path     string
	Verdicts []compare.Verdict
	// ParseErr is set when the file was skipped due to a malformed script.
	// Parse failures are reported distinctly from test failures.
	ParseErr error
	Duration time.Duration
}

// Failed reports whether any directive in the script did not pass.
func (r *ScriptResult) Failed() bool {
	if r.ParseErr != nil {
		return true
	}

	for _, v := range r.Verdicts {
		if !v.Passed() {
			return true
		}
	}

	return false
}

// Runner executes scripts against adapter sessions with bounded parallelism
type Runner struct {
	factory    adapter.Factory
	workerPool chan struct{} // semaphore
	options    *Options
}

// New creates a new runner
func New(factory adapter.Factory, options *Options) *Runner {
	if options == nil {
		options = DefaultOptions()
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Runner{
		factory:    factory,
		workerPool: make(chan struct{}, workers),
		options:    options,
	}
}

// RunFiles parses and runs every script path in order.
// A file that fails to parse is recorded and skipped; the run continues.
func (r *Runner) RunFiles(ctx context.Context, paths []string) (*Summary, error) {
	scripts := make([]*script.Script, 0, len(paths))
	parseFailures := make([]ScriptResult, 0)

	for _, path := range paths {
		sc, err := script.ParseFile(path)
		if err != nil {
			parseFailures = append(parseFailures, ScriptResult{Path: path, ParseErr: err})
			continue
		}

		scripts = append(scripts, sc)
	}

	summary, err := r.Run(ctx, scripts)
	if err != nil {
		return summary, err
	}

	for _, failure := range parseFailures {
		summary.add(failure)
	}

	summary.sortResults(paths)

	return summary, nil
}

// Run executes the given scripts, parallel across scripts up to the worker
// count, strictly sequential within each script. Cancellation is cooperative:
// in-flight scripts finish, pending scripts are marked skipped. Only a failed
// session open (catastrophic adapter unavailability) aborts the run.
func (r *Runner) Run(ctx context.Context, scripts []*script.Script) (*Summary, error) {
	summary := newSummary()

	startTime := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		fatalErr error
	)

	results := make(chan ScriptResult, len(scripts))

	for _, sc := range scripts {
		wg.Add(1)

		go func(sc *script.Script) {
			defer wg.Done()

			// Acquire semaphore; a cancelled run skips scripts that
			// have not started yet
			select {
			case r.workerPool <- struct{}{}:
				defer func() { <-r.workerPool }()
			case <-runCtx.Done():
				results <- skippedScript(sc, "run canceled before script started")
				return
			}

			if runCtx.Err() != nil {
				results <- skippedScript(sc, "run canceled before script started")
				return
			}

			result, err := r.runScript(runCtx, sc)
			if err != nil {
				errOnce.Do(func() {
					fatalErr = err
					cancel()
				})

				return
			}

			results <- result
		}(sc)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		summary.add(result)
	}

	summary.TotalDuration = time.Since(startTime)

	if fatalErr != nil {
		return summary, fatalErr
	}

	paths := make([]string, len(scripts))
	for i, sc := range scripts {
		paths[i] = sc.Path
	}

	summary.sortResults(paths)

	return summary, nil
}

// runScript executes one script against a fresh adapter session.
// Directives run in file order against shared session state; a halt
// directive or an adapter crash marks the remainder skipped.
func (r *Runner) runScript(ctx context.Context, sc *script.Script) (ScriptResult, error) {
	result := ScriptResult{Path: sc.Path}

	session, err := r.factory.Session(ctx)
	if err != nil {
		return result, fmt.Errorf("%w for %s: %w", ErrSessionOpen, sc.Path, err)
	}
	defer session.Close()

	startTime := time.Now()

	skipReason := ""

	for _, directive := range sc.Directives {
		if skipReason != "" {
			result.Verdicts = append(result.Verdicts, compare.Skip(directive, skipReason))
			continue
		}

		switch d := directive.(type) {
		case *script.Halt:
			skipReason = "halted"
		case *script.Statement:
			_, execErr, crashed := r.execute(ctx, session, d.SQL)
			if crashed {
				result.Verdicts = append(result.Verdicts, crashVerdict(d.Pos(), d.SQL, execErr))
				skipReason = "adapter crashed earlier in script"

				continue
			}

			verdict := compare.Statement(d, execErr)
			result.Verdicts = append(result.Verdicts, verdict)

			if r.options.HaltOnFailure && !verdict.Passed() {
				skipReason = "halted after earlier failure"
			}
		case *script.Query:
			rowSet, execErr, crashed := r.execute(ctx, session, d.SQL)
			if crashed {
				result.Verdicts = append(result.Verdicts, crashVerdict(d.Pos(), d.SQL, execErr))
				skipReason = "adapter crashed earlier in script"

				continue
			}

			var rows [][]any
			if rowSet != nil {
				rows = rowSet.Rows
			}

			verdict := compare.Query(d, rows, execErr)
			result.Verdicts = append(result.Verdicts, verdict)

			if r.options.HaltOnFailure && !verdict.Passed() {
				skipReason = "halted after earlier failure"
			}
		}
	}

	result.Duration = time.Since(startTime)

	return result, nil
}

// execute performs one adapter call with the configured timeout and converts
// panics into a crash signal. The call is detached from run cancellation so
// that an interrupted run still finishes its current script.
func (r *Runner) execute(ctx context.Context, session adapter.Adapter, sql string) (rowSet *adapter.RowSet, err error, crashed bool) {
	execCtx := context.WithoutCancel(ctx)

	if r.options.DirectiveTimeout > 0 {
		var cancel context.CancelFunc

		execCtx, cancel = context.WithTimeout(execCtx, r.options.DirectiveTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			rowSet = nil
			err = fmt.Errorf("adapter panic: %v", p)
			crashed = true
		}
	}()

	rowSet, err = session.Execute(execCtx, sql)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", ErrDirectiveTimeout, r.options.DirectiveTimeout)
	}

	return rowSet, err, false
}

func crashVerdict(loc script.Location, sql string, err error) compare.Verdict {
	return compare.Verdict{
		Kind:     compare.UnexpectedError,
		Location: loc,
		SQL:      sql,
		Reason:   err.Error(),
	}
}

func skippedScript(sc *script.Script, reason string) ScriptResult {
	result := ScriptResult{Path: sc.Path}
	for _, directive := range sc.Directives {
		result.Verdicts = append(result.Verdicts, compare.Skip(directive, reason))
	}

	return result
}
