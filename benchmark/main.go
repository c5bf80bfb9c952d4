// Command benchmark sends concurrent /analyze-image requests to a running
// server and reports latency per image host.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var (
	backend     = flag.String("backend", "http://localhost:8000", "Address of the narrator server")
	urlsPath    = flag.String("urls", "./data/urls.txt", "File with one image URL per line")
	concurrency = flag.Int("concurrency", 4, "Number of requests in flight")
	repeat      = flag.Int("repeat", 1, "Number of times each URL is sent")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	urls, err := readURLs(*urlsPath)
	if err != nil {
		log.Fatalf("read urls: %v", err)
	}
	if len(urls) == 0 {
		log.Fatalf("no urls in %s", *urlsPath)
	}

	var jobs []string
	for range *repeat {
		jobs = append(jobs, urls...)
	}

	bar := progressbar.NewOptions(
		len(jobs),
		progressbar.OptionSetDescription("Analyzing images"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)

	results := make([]BenchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for i, u := range jobs {
		g.Go(func() error {
			results[i] = benchmarkImage(gctx, u)
			bar.Add(1)
			return nil
		})
	}
	g.Wait()

	for _, res := range results {
		if res.Err != nil {
			log.Println("ERR:", res.URL, res.Err)
		}
	}

	if dups := duplicateAudio(results); len(dups) > 0 {
		log.Printf("WARNING: %d audio files were returned more than once: %v", len(dups), dups)
	}

	printMarkdown(results)
}

func readURLs(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func benchmarkImage(ctx context.Context, imageURL string) BenchResult {
	start := time.Now()
	res := BenchResult{URL: imageURL, Host: hostOf(imageURL)}

	resp, err := analyze(ctx, AnalyzeRequest{ImageURL: imageURL})
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	res.Chars = len(resp.Analysis)
	res.AudioFile = resp.AudioFile
	res.AudioSize, res.Err = downloadSize(ctx, path.Base(resp.AudioFile))
	res.Duration = time.Since(start)
	return res
}

func analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal req: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, *backend+"/analyze-image", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		b, _ := io.ReadAll(resp.Body)
		if sonic.Unmarshal(b, &e) == nil && e.Detail != "" {
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, e.Detail)
		}
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out AnalyzeResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func downloadSize(ctx context.Context, name string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *backend+"/audio/"+url.PathEscape(name), nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("audio %s: bad status %d", name, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		return 0, fmt.Errorf("audio %s: unexpected content type %q", name, ct)
	}
	return io.Copy(io.Discard, resp.Body)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

func duplicateAudio(results []BenchResult) []string {
	var (
		seen = map[string]int{}
		dups []string
	)
	for _, r := range results {
		if r.Err != nil || r.AudioFile == "" {
			continue
		}
		seen[r.AudioFile]++
		if seen[r.AudioFile] == 2 {
			dups = append(dups, r.AudioFile)
		}
	}
	return dups
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		a := m[r.Host]
		a.Count++
		a.TotalBytes += r.AudioSize
		a.Total += r.Duration
		m[r.Host] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Print("\n## Benchmark Results\n\n")
	fmt.Println("| Host | Requests | Avg Time | Total Time | Avg Audio Size |")
	fmt.Println("|------|----------|----------|------------|----------------|")

	agg := aggregate(results)

	var (
		totalCount    int
		totalDuration time.Duration
		totalBytes    int64
	)

	for host, a := range agg {
		avg := a.Total / time.Duration(a.Count)
		avgSize := a.TotalBytes / int64(a.Count)
		fmt.Printf("| %s | %d | %v | %v | %s |\n",
			host,
			a.Count,
			avg.Round(time.Millisecond),
			a.Total.Round(time.Millisecond),
			humanBytes(avgSize),
		)
		totalCount += a.Count
		totalDuration += a.Total
		totalBytes += a.TotalBytes
	}

	if totalCount > 0 {
		mean := totalDuration / time.Duration(totalCount)
		avgSize := totalBytes / int64(totalCount)
		fmt.Printf("| **ALL** | %d | %v | %v | %s |\n",
			totalCount,
			mean.Round(time.Millisecond),
			totalDuration.Round(time.Millisecond),
			humanBytes(avgSize),
		)
	}
	fmt.Printf("\n%d of %d requests failed\n", len(results)-totalCount, len(results))
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
