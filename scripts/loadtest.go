//go:build ignore

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var baseURL = "http://localhost:8080"

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
}

func (s *Stats) record(latency time.Duration, ok bool) {
	atomic.AddInt64(&s.TotalRequests, 1)
	if ok {
		atomic.AddInt64(&s.SuccessRequests, 1)
	} else {
		atomic.AddInt64(&s.FailedRequests, 1)
	}
	ms := latency.Milliseconds()
	atomic.AddInt64(&s.TotalLatency, ms)
	for {
		cur := atomic.LoadInt64(&s.MinLatency)
		if cur != 0 && cur <= ms || atomic.CompareAndSwapInt64(&s.MinLatency, cur, ms) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&s.MaxLatency)
		if cur >= ms || atomic.CompareAndSwapInt64(&s.MaxLatency, cur, ms) {
			break
		}
	}
}

type selectionState struct {
	Selected *struct {
		ID int64 `json:"id"`
	} `json:"selected"`
	Route *struct {
		RideID int64 `json:"ride_id"`
	} `json:"route"`
	Resolving bool `json:"resolving"`
}

// Churns ride selections against a running server and checks that the
// displayed route always settles on the last selected ride.
func main() {
	if u := os.Getenv("CARNEST_URL"); u != "" {
		baseURL = u
	}

	fmt.Println("Carnest Selection Load Test")
	fmt.Println("===========================")

	fmt.Println("\n1. Fetching rides...")
	ids := fetchRideIDs()
	if len(ids) < 2 {
		log.Fatalf("need at least 2 rides, got %d", len(ids))
	}
	fmt.Printf("   %d rides available\n", len(ids))

	fmt.Println("\n2. Selection churn (500 requests, 20 concurrent)...")
	stats := churnSelections(ids, 500, 20)
	printStats("Selection churn", stats)

	fmt.Println("\n3. Settling check (50 rounds)...")
	mismatches := 0
	for i := 0; i < 50; i++ {
		last := ids[rand.Intn(len(ids))]
		for _, id := range []int64{ids[rand.Intn(len(ids))], ids[rand.Intn(len(ids))], last} {
			post(fmt.Sprintf("/v1/rides/%d/select", id))
		}
		state := waitSettled()
		if state.Selected == nil || state.Selected.ID != last || (state.Route != nil && state.Route.RideID != last) {
			mismatches++
		}
	}
	fmt.Printf("   mismatches: %d/50\n", mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func fetchRideIDs() []int64 {
	resp, err := http.Get(baseURL + "/v1/rides")
	if err != nil {
		log.Fatalf("GET /v1/rides: %v", err)
	}
	defer resp.Body.Close()

	var view struct {
		Cards []struct {
			Ride struct {
				ID int64 `json:"id"`
			} `json:"ride"`
		} `json:"cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		log.Fatalf("decode rides: %v", err)
	}

	ids := make([]int64, 0, len(view.Cards))
	for _, c := range view.Cards {
		ids = append(ids, c.Ride.ID)
	}
	return ids
}

func churnSelections(ids []int64, numRequests, concurrency int) *Stats {
	stats := &Stats{}
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			status := post(fmt.Sprintf("/v1/rides/%d/select", ids[rand.Intn(len(ids))]))
			stats.record(time.Since(start), status == http.StatusAccepted)
		}()
	}
	wg.Wait()
	return stats
}

func waitSettled() selectionState {
	deadline := time.Now().Add(10 * time.Second)
	for {
		var state selectionState
		resp, err := http.Get(baseURL + "/v1/selection")
		if err == nil {
			json.NewDecoder(resp.Body).Decode(&state)
			resp.Body.Close()
		}
		if !state.Resolving || time.Now().After(deadline) {
			return state
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func post(path string) int {
	resp, err := http.Post(baseURL+path, "application/json", nil)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}

func printStats(name string, stats *Stats) {
	total := atomic.LoadInt64(&stats.TotalRequests)
	if total == 0 {
		fmt.Printf("   %s: no requests\n", name)
		return
	}
	fmt.Printf("   %s:\n", name)
	fmt.Printf("     Total:   %d\n", total)
	fmt.Printf("     Success: %d\n", stats.SuccessRequests)
	fmt.Printf("     Failed:  %d\n", stats.FailedRequests)
	fmt.Printf("     Avg:     %dms\n", stats.TotalLatency/total)
	fmt.Printf("     Min:     %dms\n", stats.MinLatency)
	fmt.Printf("     Max:     %dms\n", stats.MaxLatency)
}
