package main

import "time"

type AnalyzeRequest struct {
	ImageURL string `json:"image_url"`
}

type AnalyzeResponse struct {
	Caption   string `json:"caption"`
	Analysis  string `json:"analysis"`
	AudioFile string `json:"audio_file"`
	Success   bool   `json:"success"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type BenchResult struct {
	URL       string
	Host      string
	Duration  time.Duration
	Chars     int
	AudioFile string
	AudioSize int64
	Err       error
}

type Agg struct {
	Count      int
	Total      time.Duration
	TotalBytes int64
}
