// Package main provides a performance benchmarking tool for the Tally CLI.
// It generates synthetic reports of increasing size, then measures how long a
// worker takes to process them. Each size is processed several times against
// the same store: the first run creates every issue, later runs track issues
// against the previous analysis. Results are written as CSV.
//
// Prerequisites:
// - tally binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated payloads and SQLite stores
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/tally/schema"
	"gopkg.in/yaml.v3"
)

// BenchmarkResult holds the result of a benchmark run (first run and average of repeat runs).
type BenchmarkResult struct {
	Size      string
	Files     int
	FirstTime string
	RepeatAvg string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Runs          int
	IssuesPerFile int
	LinesPerFile  int
	Sizes         map[string]int
	SizeOrder     []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Runs:          4,
		IssuesPerFile: 5,
		LinesPerFile:  200,
		Sizes: map[string]int{
			"small":  100,
			"medium": 1000,
			"large":  10000,
		},
		SizeOrder: []string{"small", "medium", "large"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the tally binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("tally"); err != nil {
		return fmt.Errorf("tally binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generatePayload builds a report with one directory per 50 files.
func generatePayload(config BenchmarkConfig, files int) *schema.ReportPayload {
	p := &schema.ReportPayload{
		ProjectKey: "bench",
		RootRef:    1,
		Components: []schema.PayloadComponent{{Ref: 1, Key: "bench", Name: "bench", Type: "PROJECT"}},
		Debt: schema.PayloadDebtModel{
			Characteristics: []schema.PayloadCharacteristic{
				{ID: 1, Key: "MAINTAINABILITY"},
				{ID: 2, Key: "READABILITY", ParentID: 1},
			},
			Rules: []schema.PayloadRule{
				{ID: 1, Key: "bench:R1", CharacteristicID: 2},
				{ID: 2, Key: "bench:R2", CharacteristicID: 1},
			},
		},
	}

	ref := 2
	dirIdx := 0
	for i := range files {
		if i%50 == 0 {
			dirRef := ref
			ref++
			dirIdx = len(p.Components)
			p.Components[0].Children = append(p.Components[0].Children, dirRef)
			p.Components = append(p.Components, schema.PayloadComponent{
				Ref: dirRef, Key: fmt.Sprintf("bench:dir%d", i/50), Name: fmt.Sprintf("dir%d", i/50), Type: "DIRECTORY",
			})
		}

		fileRef := ref
		ref++
		p.Components[dirIdx].Children = append(p.Components[dirIdx].Children, fileRef)
		p.Components = append(p.Components, schema.PayloadComponent{
			Ref: fileRef, Key: fmt.Sprintf("bench:dir%d/f%d.go", i/50, i), Name: fmt.Sprintf("f%d.go", i), Type: "FILE",
		})

		ncloc := int32(config.LinesPerFile)
		complexity := int32(i%20 + 1)
		p.Measures = append(p.Measures,
			schema.PayloadMeasure{Ref: fileRef, Metric: "ncloc", Int: &ncloc},
			schema.PayloadMeasure{Ref: fileRef, Metric: "complexity", Int: &complexity},
		)

		lines := make([]string, config.LinesPerFile)
		for l := range lines {
			lines[l] = fmt.Sprintf("line %d of file %d", l, i)
		}
		p.Sources = append(p.Sources, schema.PayloadSource{Ref: fileRef, Lines: lines})

		for n := range config.IssuesPerFile {
			p.Issues = append(p.Issues, schema.PayloadIssue{
				Ref:           fileRef,
				RuleKey:       fmt.Sprintf("bench:R%d", n%2+1),
				Line:          (n*37)%config.LinesPerFile + 1,
				Message:       "synthetic issue",
				EffortMinutes: int64(n + 1),
			})
		}
	}
	return p
}

// writePayload marshals the payload to a YAML file.
func writePayload(p *schema.ReportPayload, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d runs each\n",
		len(config.SizeOrder), config.Timeout, config.Runs)

	for _, size := range config.SizeOrder {
		files := config.Sizes[size]
		fmt.Printf("Benchmarking %s (%d files)\n", size, files)

		payloadPath := filepath.Join(config.WorkDir, size+".yaml")
		if err := writePayload(generatePayload(config, files), payloadPath); err != nil {
			fmt.Printf("  Skipping %s: %v\n", size, err)
			continue
		}

		dbPath := filepath.Join(config.WorkDir, size+".db")
		_ = os.Remove(dbPath)

		first, repeats := runBenchmark(config, payloadPath, dbPath)

		firstStr := "TIMEOUT"
		if first > 0 {
			firstStr = fmt.Sprintf("%.3fs", first)
		}
		repeatStr := "TIMEOUT"
		if len(repeats) > 0 {
			var sum float64
			for _, t := range repeats {
				sum += t
			}
			repeatStr = fmt.Sprintf("%.3fs", sum/float64(len(repeats)))
		}
		fmt.Printf("  First run: %s, Repeat average: %s\n", firstStr, repeatStr)

		results = append(results, BenchmarkResult{Size: size, Files: files, FirstTime: firstStr, RepeatAvg: repeatStr})
	}

	return results
}

// runBenchmark submits and processes the payload several times and returns the first and repeat times
func runBenchmark(config BenchmarkConfig, payloadPath, dbPath string) (firstTime float64, repeatTimes []float64) {
	env := append(os.Environ(), "TALLY_STORE_BACKEND=sqlite", "TALLY_STORE_DB_CONNECT="+dbPath)

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		submit := exec.Command("tally", "submit", payloadPath)
		submit.Env = env
		if output, err := submit.CombinedOutput(); err != nil {
			fmt.Printf("  Run %d: submit failed: %v\nOutput: %s\n", run, err, string(output))
			break
		}

		start := time.Now()
		cmd := exec.Command("tally", "worker", "--max-reports", "1", "--poll-interval", "50ms")
		cmd.Env = env

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		firstTime = times[0]
		repeatTimes = times[1:]
	}
	return
}

// isSuccess checks if worker output indicates a processed report
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis of project bench") &&
		strings.Contains(outputStr, "(done)")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/tally_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"size", "files", "first_time", "repeat_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Size, fmt.Sprint(result.Files), result.FirstTime, result.RepeatAvg}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s (%5d files): First: %s, Repeat: %s\n", result.Size, result.Files, result.FirstTime, result.RepeatAvg)
	}
}
