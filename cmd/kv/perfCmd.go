package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/redikv/cmd/util"
	"github.com/ValentinKolb/redikv/resp/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for redikv servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for redikv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Server: %s\n", util.GetServerAddr())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Println()

	// Each benchmark worker borrows its own connection from the pool
	ctx := context.Background()
	pool := client.NewPool(ctx, util.GetServerAddr(), util.GetClientTimeout(), perfNumThreads)
	defer pool.Close(ctx)

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	// benchmark runs one named test: each parallel worker calls op with
	// its borrowed connection and a rotating key
	benchmark := func(name string, setup bool, op func(c *client.Client, key string) error) testing.BenchmarkResult {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(name) {
				return
			}

			getKey, iter := getKeys(name)

			// pre-populate keys for read-style tests
			if setup {
				iter(func(k string) {
					if err := poolDo(ctx, pool, "SET", k, "test"); err != nil {
						log.Printf("(%s) - error setting key: %v\n", name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					if err := poolDo(ctx, pool, "DEL", k); err != nil {
						log.Printf("(%s) - error deleting key: %v\n", name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				c, err := pool.Borrow(ctx)
				if err != nil {
					log.Printf("(%s) - error borrowing connection: %v\n", name, err)
					return
				}
				defer pool.Return(ctx, c)

				counter := 0
				for pb.Next() {
					if err := op(c, getKey(counter)); err != nil {
						log.Printf("(%s) - error: %v\n", name, err)
					}
					counter++
				}
			})
		})

		results[name] = result
		printResult(name, result)
		return result
	}

	benchmark("set", false, func(c *client.Client, key string) error {
		_, err := c.DoString("SET", key, "test")
		return err
	})

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	benchmark("set-large", false, func(c *client.Client, key string) error {
		_, err := c.DoString("SET", key, largeValue)
		return err
	})

	benchmark("get", true, func(c *client.Client, key string) error {
		_, err := c.DoString("GET", key)
		return err
	})

	benchmark("delete", true, func(c *client.Client, key string) error {
		_, err := c.DoString("DEL", key)
		return err
	})

	benchmark("exists", true, func(c *client.Client, key string) error {
		_, err := c.DoString("EXISTS", key)
		return err
	})

	benchmark("incr", false, func(c *client.Client, key string) error {
		_, err := c.DoString("INCR", key)
		return err
	})

	mixedCounter := 0
	benchmark("mixed", true, func(c *client.Client, key string) error {
		mixedCounter++
		var err error
		switch mixedCounter % 4 {
		case 0: // set
			_, err = c.DoString("SET", key, "test")
		case 1: // get
			_, err = c.DoString("GET", key)
		case 2: // delete
			_, err = c.DoString("DEL", key)
		case 3: // exists
			_, err = c.DoString("EXISTS", key)
		}
		return err
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// poolDo runs one command on a borrowed connection
func poolDo(ctx context.Context, pool *client.Pool, args ...string) error {
	c, err := pool.Borrow(ctx)
	if err != nil {
		return err
	}
	defer pool.Return(ctx, c)

	reply, err := c.DoString(args...)
	if err != nil {
		return err
	}
	return reply.Err()
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Server", "TimeoutSec",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			util.GetServerAddr(),
			strconv.Itoa(int(util.GetClientTimeout() / time.Second)),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
