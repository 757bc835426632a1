// Package main provides a performance benchmarking tool for the runlens CLI.
// It seeds SQLite catalogs of increasing history length, then times the dashboard
// and analytics commands against each one. Every command runs several times; the
// first successful run is treated as cold and the rest are averaged as warm.
// Results are written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - runlens binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the benchmark catalogs are created
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of one command against one catalog.
type BenchmarkResult struct {
	Catalog  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Days     []int
	Commands map[string][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 5 * time.Minute,
		Runs:    4,
		Days:    []int{7, 30, 90},
		Commands: map[string][]string{
			"dashboard":    {"dashboard", "--output", "json"},
			"dashboard-bu": {"dashboard", "--business-unit", "ClientRepo", "--output", "json"},
			"analytics":    {"analytics", "--output", "json"},
			"check":        {"check", "--min-reliability", "0", "--min-sla", "0"},
		},
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

// checkPrerequisites verifies that the runlens binary and the work dir exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("runlens"); err != nil {
		return fmt.Errorf("runlens binary not found in PATH")
	}
	if info, err := os.Stat(config.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("work dir %s does not exist", config.WorkDir)
	}
	return nil
}

// prepareCatalog creates a fresh SQLite catalog with days of seeded history
func prepareCatalog(config BenchmarkConfig, days int) (string, error) {
	dsn := filepath.Join(config.WorkDir, fmt.Sprintf("runlens_bench_%dd.db", days))
	_ = os.Remove(dsn)

	for _, args := range [][]string{
		{"catalog", "migrate"},
		{"catalog", "seed", "--days", strconv.Itoa(days)},
	} {
		cmd := exec.Command("runlens", args...)
		cmd.Env = catalogEnv(dsn)
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("runlens %v failed: %w\nOutput: %s", args, err, string(output))
		}
	}
	return dsn, nil
}

func catalogEnv(dsn string) []string {
	return append(os.Environ(), "RUNLENS_CATALOG_BACKEND=sqlite", "RUNLENS_CATALOG_DB_CONNECT="+dsn)
}

// runBenchmarks executes every command against every catalog size
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d catalogs, %v timeout, %d runs per command\n",
		len(config.Days), config.Timeout, config.Runs)

	for _, days := range config.Days {
		name := fmt.Sprintf("%dd", days)
		fmt.Printf("Seeding %s catalog\n", name)
		dsn, err := prepareCatalog(config, days)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
			continue
		}

		for _, command := range sortedCommands(config.Commands) {
			coldTime, warmTimes := runBenchmark(config, dsn, config.Commands[command])
			result := BenchmarkResult{
				Catalog:  name,
				Command:  command,
				ColdTime: formatSeconds(coldTime),
				WarmTime: formatAverage(warmTimes),
			}
			fmt.Printf("  %-12s: Cold: %s, Warm: %s\n", command, result.ColdTime, result.WarmTime)
			results = append(results, result)
		}
	}

	return results
}

func sortedCommands(commands map[string][]string) []string {
	order := []string{"dashboard", "dashboard-bu", "analytics", "check"}
	out := make([]string, 0, len(order))
	for _, c := range order {
		if _, ok := commands[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// runBenchmark executes a runlens command several times and returns the cold time and warm times
func runBenchmark(config BenchmarkConfig, dsn string, args []string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("runlens", args...)
		cmd.Env = catalogEnv(dsn)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
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

func formatSeconds(v float64) string {
	if v <= 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", v)
}

func formatAverage(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return formatSeconds(sum / float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/runlens_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"catalog", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Catalog, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by command
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range sortedCommands(config.Commands) {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-6s: Cold: %s, Warm: %s\n", result.Catalog, result.ColdTime, result.WarmTime)
			}
		}
	}
}
