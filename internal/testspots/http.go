package testspots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSpots submits spots concurrently using worker pools
func submitSpots(ctx context.Context, config *Config, spots []Spot, stats *Stats) error {
	log.Printf("submitting %d spots with %d workers...", len(spots), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/spots"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	spotChan := make(chan Spot, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for spot := range spotChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleSpot(client, url, spot)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(spotChan)
		for _, spot := range spots {
			select {
			case <-ctx.Done():
				return
			case spotChan <- spot:
			}
		}
	}()

	wg.Wait()

	stats.SpotsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SpotsSuccessful = int(atomic.LoadInt64(&successful))
	stats.SpotsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SpotsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`spot submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.SpotsSuccessful, stats.SpotsDuplicate, stats.SpotsFailed)

	return nil
}

// submitSingleSpot submits a single spot and returns the result
func submitSingleSpot(client *HTTPClient, url string, spot Spot) string {
	resp, err := client.Post(url, spot)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
