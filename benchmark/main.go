// Package main provides a performance benchmarking tool for the boardline CLI.
// It generates synthetic boards of increasing size, lays each out in several
// output formats with and without persisted state, treats the first successful
// run as cold and averages the rest as warm, and writes the timings to CSV.
//
// Prerequisites:
// - boardline binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory the synthetic boards and state databases are written to
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/boardline/internal/boardfile"
	"github.com/huangsam/boardline/schema"
	"gopkg.in/yaml.v3"
)

// BenchmarkResult holds the result of a benchmark run (stateless average, cold run and average of warm runs).
type BenchmarkResult struct {
	Board         string
	Command       string
	StatelessTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	StatelessRuns int
	StateRuns     int
	BoardSizes    []int
	Outputs       []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       2 * time.Minute,
		StatelessRuns: 3,
		StateRuns:     4,
		BoardSizes:    []int{100, 1000, 10000},
		Outputs:       []string{"text", "json", "svg"},
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

	printSummary(config, results)
}

// checkPrerequisites verifies that the boardline binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("boardline"); err != nil {
		return fmt.Errorf("boardline binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateBoard writes a board with n items spread over two years.
// A tenth of the items use range dates and a few have no date at all.
func generateBoard(dir string, n int) (string, error) {
	rng := rand.New(rand.NewPCG(uint64(n), 42))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	groups := []string{"planning", "build", "release", "ops"}

	doc := boardfile.Document{
		BoardID:    fmt.Sprintf("bench-%d", n),
		Name:       fmt.Sprintf("Benchmark board (%d items)", n),
		DateColumn: "due",
		Items:      make([]schema.ItemRecord, 0, n),
	}
	for i := range n {
		due := start.AddDate(0, 0, rng.IntN(730))
		columns := map[string]any{"due": map[string]any{"date": due.Format(schema.DateLayout)}}
		switch {
		case i%50 == 49:
			columns = map[string]any{}
		case i%10 == 9:
			from := due.AddDate(0, 0, -rng.IntN(30)).Format(schema.DateLayout)
			columns["due"] = map[string]any{"from": from, "to": due.Format(schema.DateLayout)}
		}
		doc.Items = append(doc.Items, schema.ItemRecord{
			ID:      fmt.Sprintf("item-%d", i),
			Name:    fmt.Sprintf("Task %d", i),
			Group:   groups[i%len(groups)],
			Columns: columns,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, doc.BoardID+".yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark tests across the generated boards
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d boards, %v timeout, stateless: %d runs, state: %d runs\n",
		len(config.BoardSizes), config.Timeout, config.StatelessRuns, config.StateRuns)

	for _, size := range config.BoardSizes {
		boardPath, err := generateBoard(config.WorkDir, size)
		if err != nil {
			fmt.Printf("Warning: failed to generate board of %d items: %v\n", size, err)
			continue
		}
		board := filepath.Base(boardPath)
		fmt.Printf("Benchmarking %s\n", board)

		for _, output := range config.Outputs {
			desc := fmt.Sprintf("layout --output %s", output)
			results = append(results, runBenchmarkSuite(config, board, boardPath, "layout", desc, "--output "+output))
		}
		results = append(results, runBenchmarkSuite(config, board, boardPath, "markers", "markers", "--scale week"))
	}

	return results
}

// runBenchmarkSuite runs both stateless and stateful benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, board, boardPath, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, board)

	runPhase := func(stateBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, boardPath, command, extraArgs, stateBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, statelessAvg := runPhase("none", config.StatelessRuns, "Stateless")
	coldTime, warmAvg := runPhase("sqlite", config.StateRuns, "State")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Stateless average: %s, Cold time: %s, Warm average: %s\n", statelessAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Board:         board,
		Command:       description,
		StatelessTime: statelessAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes a boardline command multiple times with the given state backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, boardPath, command, extraArgs, stateBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, boardPath, "--state-backend", stateBackend}
	if stateBackend == "sqlite" {
		args = append(args, "--state-db-connect", filepath.Join(config.WorkDir, "bench-state.db"))
	}
	if extraArgs != "" {
		args = append(args, strings.Fields(extraArgs)...)
	}

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("boardline", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool, 1)
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
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output looks like a completed render
func isSuccess(output []byte) bool {
	return len(strings.TrimSpace(string(output))) > 0 && !strings.Contains(string(output), "Fatal")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/boardline_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"board", "cmd", "stateless_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Board, result.Command, result.StatelessTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, output := range config.Outputs {
		printCommandSummary(results, "layout --output "+output, fmt.Sprintf("Layout (%s):", output))
	}
	printCommandSummary(results, "markers", "Markers:")
	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-18s: Stateless: %s, Cold: %s, Warm: %s\n", result.Board, result.StatelessTime, result.ColdTime, result.WarmTime)
		}
	}
}
