package runner

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/sqlogic/sqlogic/compare"
)

var (
	headerFmt         = color.New(color.FgBlue, color.Bold).SprintfFunc()
	legendExpectedFmt = color.New(color.FgGreen).SprintFunc()
	legendActualFmt   = color.New(color.FgRed).SprintFunc()
	expectedRowFmt    = color.New(color.FgGreen).SprintfFunc()
	actualRowFmt      = color.New(color.FgRed).SprintfFunc()
	failLocationFmt   = color.New(color.FgRed, color.Bold).SprintfFunc()
	parseErrorFmt     = color.New(color.FgYellow).SprintfFunc()
)

// Summary represents the overall run summary.
// Counter updates are serialized through the runner's single collector
// goroutine, the only cross-worker shared state in a run.
type Summary struct {
	RunID               string
	StartedAt           time.Time
	TotalDuration       time.Duration
	TotalScripts        int
	TotalDirectives     int
	PassedDirectives    int
	FailedDirectives    int
	UnexpectedErrors    int
	UnexpectedSuccesses int
	SkippedDirectives   int
	ParseFailures       int
	Results             []ScriptResult
}

func newSummary() *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Passed reports whether every directive in the run passed.
// Exit-code convention: zero iff Passed returns true.
func (s *Summary) Passed() bool {
	return s.ParseFailures == 0 &&
		s.FailedDirectives == 0 &&
		s.UnexpectedErrors == 0 &&
		s.UnexpectedSuccesses == 0 &&
		s.SkippedDirectives == 0
}

func (s *Summary) add(result ScriptResult) {
	s.TotalScripts++

	if result.ParseErr != nil {
		s.ParseFailures++
	}

	for _, verdict := range result.Verdicts {
		s.TotalDirectives++

		switch verdict.Kind {
		case compare.Pass:
			s.PassedDirectives++
		case compare.Fail:
			s.FailedDirectives++
		case compare.UnexpectedError:
			s.UnexpectedErrors++
		case compare.UnexpectedSuccess:
			s.UnexpectedSuccesses++
		case compare.Skipped:
			s.SkippedDirectives++
		}
	}

	s.Results = append(s.Results, result)
}

// sortResults restores the input file order for deterministic reporting.
func (s *Summary) sortResults(paths []string) {
	order := make(map[string]int, len(paths))
	for i, path := range paths {
		order[path] = i
	}

	sort.SliceStable(s.Results, func(i, j int) bool {
		return order[s.Results[i].Path] < order[s.Results[j].Path]
	})
}

// PrintSummary writes the human-readable console report.
func (s *Summary) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", headerFmt("=== SQL Logic Test Summary ==="))
	fmt.Fprintf(w, "Scripts: %d total, %d with parse errors\n", s.TotalScripts, s.ParseFailures)
	fmt.Fprintf(w, "Directives: %d total, %d passed, %d failed, %d unexpected errors, %d unexpected successes, %d skipped\n",
		s.TotalDirectives, s.PassedDirectives, s.FailedDirectives, s.UnexpectedErrors, s.UnexpectedSuccesses, s.SkippedDirectives)
	fmt.Fprintf(w, "Duration: %.3fs\n", s.TotalDuration.Seconds())

	s.printScriptTable(w)
	s.printParseFailures(w)
	s.printFailures(w)

	if s.Passed() {
		fmt.Fprintf(w, "\nAll directives passed! ✅\n")
	} else {
		fmt.Fprintf(w, "\nSome directives failed! ❌\n")
	}
}

func (s *Summary) printScriptTable(w io.Writer) {
	if len(s.Results) == 0 {
		return
	}

	fmt.Fprintf(w, "\n")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Script", "Pass", "Fail", "Skip", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, result := range s.Results {
		if result.ParseErr != nil {
			table.Append([]string{result.Path, "-", "-", "-", "parse error"})
			continue
		}

		pass, fail, skip := 0, 0, 0

		for _, verdict := range result.Verdicts {
			switch verdict.Kind {
			case compare.Pass:
				pass++
			case compare.Skipped:
				skip++
			default:
				fail++
			}
		}

		table.Append([]string{
			result.Path,
			strconv.Itoa(pass),
			strconv.Itoa(fail),
			strconv.Itoa(skip),
			fmt.Sprintf("%.3fs", result.Duration.Seconds()),
		})
	}

	table.Render()
}

func (s *Summary) printParseFailures(w io.Writer) {
	if s.ParseFailures == 0 {
		return
	}

	fmt.Fprintf(w, "\nMalformed scripts (skipped):\n")

	for _, result := range s.Results {
		if result.ParseErr != nil {
			fmt.Fprintf(w, "  %s\n", parseErrorFmt("%v", result.ParseErr))
		}
	}
}

func (s *Summary) printFailures(w io.Writer) {
	printed := false

	for _, result := range s.Results {
		for _, verdict := range result.Verdicts {
			if verdict.Passed() || verdict.Kind == compare.Skipped {
				continue
			}

			if !printed {
				fmt.Fprintf(w, "\nFailing directives:\n")
				printed = true
			}

			printVerdict(w, verdict)
		}
	}
}

func printVerdict(w io.Writer, verdict compare.Verdict) {
	fmt.Fprintf(w, "\n%s %s\n", failLocationFmt("%s:%d", verdict.Location.Path, verdict.Location.Line), verdict.Kind)

	if verdict.SQL != "" {
		fmt.Fprintf(w, "  SQL: %s\n", verdict.SQL)
	}

	if verdict.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", verdict.Reason)
	}

	if len(verdict.Expected) == 0 && len(verdict.Actual) == 0 {
		return
	}

	fmt.Fprintf(w, "  %s\n", legendExpectedFmt("- Expected"))
	fmt.Fprintf(w, "  %s\n", legendActualFmt("+ Actual"))

	for _, row := range verdict.Expected {
		fmt.Fprintf(w, "  %s\n", expectedRowFmt("- %s", row))
	}

	for _, row := range verdict.Actual {
		fmt.Fprintf(w, "  %s\n", actualRowFmt("+ %s", row))
	}
}

// Report is the machine-readable run report.
type Report struct {
	RunID      string         `yaml:"run_id"`
	StartedAt  time.Time      `yaml:"started_at"`
	Duration   string         `yaml:"duration"`
	Counts     ReportCounts   `yaml:"counts"`
	AllPassed  bool           `yaml:"all_passed"`
	Scripts    []ScriptReport `yaml:"scripts"`
}

// ReportCounts aggregates verdict counts across the run.
type ReportCounts struct {
	Scripts             int `yaml:"scripts"`
	Directives          int `yaml:"directives"`
	Passed              int `yaml:"passed"`
	Failed              int `yaml:"failed"`
	UnexpectedErrors    int `yaml:"unexpected_errors"`
	UnexpectedSuccesses int `yaml:"unexpected_successes"`
	Skipped             int `yaml:"skipped"`
	ParseFailures       int `yaml:"parse_failures"`
}

// ScriptReport describes one script's outcome; failing directives carry full
// diagnostic detail.
type ScriptReport struct {
	Path       string            `yaml:"path"`
	ParseError string            `yaml:"parse_error,omitempty"`
	Duration   string            `yaml:"duration"`
	Failures   []DirectiveReport `yaml:"failures,omitempty"`
}

// DirectiveReport describes one failing directive.
type DirectiveReport struct {
	Line     int      `yaml:"line"`
	Verdict  string   `yaml:"verdict"`
	SQL      string   `yaml:"sql,omitempty"`
	Reason   string   `yaml:"reason,omitempty"`
	Expected []string `yaml:"expected,omitempty"`
	Actual   []string `yaml:"actual,omitempty"`
}

// BuildReport converts the summary into its machine-readable form.
func (s *Summary) BuildReport() *Report {
	report := &Report{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		Duration:  s.TotalDuration.String(),
		AllPassed: s.Passed(),
		Counts: ReportCounts{
			Scripts:             s.TotalScripts,
			Directives:          s.TotalDirectives,
			Passed:              s.PassedDirectives,
			Failed:              s.FailedDirectives,
			UnexpectedErrors:    s.UnexpectedErrors,
			UnexpectedSuccesses: s.UnexpectedSuccesses,
			Skipped:             s.SkippedDirectives,
			ParseFailures:       s.ParseFailures,
		},
	}

	for _, result := range s.Results {
		scriptReport := ScriptReport{
			Path:     result.Path,
			Duration: result.Duration.String(),
		}

		if result.ParseErr != nil {
			scriptReport.ParseError = result.ParseErr.Error()
		}

		for _, verdict := range result.Verdicts {
			if verdict.Passed() {
				continue
			}

			scriptReport.Failures = append(scriptReport.Failures, DirectiveReport{
				Line:     verdict.Location.Line,
				Verdict:  verdict.Kind.String(),
				SQL:      verdict.SQL,
				Reason:   verdict.Reason,
				Expected: verdict.Expected,
				Actual:   verdict.Actual,
			})
		}

		report.Scripts = append(report.Scripts, scriptReport)
	}

	return report
}

// WriteReport writes the machine-readable report as YAML to path.
func (s *Summary) WriteReport(path string) error {
	data, err := yaml.Marshal(s.BuildReport())
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
