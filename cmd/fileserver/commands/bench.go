package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	benchCount       int
	benchSequential  bool
	benchConcurrency int
	benchTimeout     time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench URL [URL...]",
	Short: "Issue a batch of GET requests against a running server",
	Long: `Issue a batch of GET requests against a running server and report
per-request status codes and total wall time.

By default all requests are issued concurrently, which makes rate
limiting and the racy counter's lost updates observable. Use
--sequential to issue them one at a time instead.

Examples:
  # 10 concurrent GETs of one path
  fileserver bench -n 10 http://localhost:8000/index.html

  # One concurrent GET per listed path
  fileserver bench http://localhost:8000/a.txt http://localhost:8000/b.txt

  # Sequential requests, one per second window
  fileserver bench -n 10 --sequential http://localhost:8000/index.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchCount, "requests", "n", 1, "number of requests per URL")
	benchCmd.Flags().BoolVar(&benchSequential, "sequential", false, "issue requests one at a time")
	benchCmd.Flags().IntVar(&benchConcurrency, "concurrency", 0, "maximum in-flight requests (0 = unlimited)")
	benchCmd.Flags().DurationVar(&benchTimeout, "timeout", 10*time.Second, "per-request timeout")
}

// benchResult is the outcome of a single GET.
type benchResult struct {
	url      string
	status   int
	bytes    int64
	duration time.Duration
	err      error
}

func runBench(cmd *cobra.Command, args []string) error {
	var urls []string
	for _, u := range args {
		for i := 0; i < benchCount; i++ {
			urls = append(urls, u)
		}
	}

	client := &http.Client{Timeout: benchTimeout}

	results := make([]benchResult, len(urls))
	start := time.Now()

	if benchSequential {
		for i, u := range urls {
			results[i] = fetch(cmd.Context(), client, u)
		}
	} else {
		g, ctx := errgroup.WithContext(cmd.Context())
		if benchConcurrency > 0 {
			g.SetLimit(benchConcurrency)
		}
		var mu sync.Mutex
		for i, u := range urls {
			i, u := i, u
			g.Go(func() error {
				r := fetch(ctx, client, u)
				mu.Lock()
				results[i] = r
				mu.Unlock()
				return nil
			})
		}
		// Request failures are reported per result, never as a group error.
		_ = g.Wait()
	}

	total := time.Since(start)

	statusCounts := make(map[int]int)
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			fmt.Printf("ERROR %-40s %v\n", r.url, r.err)
			continue
		}
		statusCounts[r.status]++
		fmt.Printf("%d   %-40s %6d bytes  %8.2fms\n",
			r.status, r.url, r.bytes, float64(r.duration.Microseconds())/1000)
	}

	fmt.Printf("\n%d requests in %.2fs", len(urls), total.Seconds())
	if failures > 0 {
		fmt.Printf(", %d failed", failures)
	}
	fmt.Println()

	statuses := make([]int, 0, len(statusCounts))
	for status := range statusCounts {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fmt.Printf("  %d: %d\n", status, statusCounts[status])
	}

	return nil
}

// fetch issues one GET and drains the body so connections are reusable.
func fetch(ctx context.Context, client *http.Client, url string) benchResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return benchResult{url: url, err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return benchResult{url: url, err: err, duration: time.Since(start)}
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return benchResult{url: url, err: err, duration: time.Since(start)}
	}

	return benchResult{
		url:      url,
		status:   resp.StatusCode,
		bytes:    n,
		duration: time.Since(start),
	}
}
