package bench

// #region imports
import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/missionlog"
	"github.com/danielpatrickdp/morty-express/internal/policy"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
)

// #endregion

// #region types

// Benchmark runs one policy repeatedly and aggregates delivered counts.
// NewClient must return an isolated client per run; runs share nothing but
// the optional store, which is written from a single goroutine.
type Benchmark struct {
	Policy    policy.Config
	Sched     *schedule.Index
	NewClient func(run int) mission.Client

	// Store persists each completed run when set.
	Store *missionlog.Store
	// Concurrency caps parallel runs; 0 means sequential.
	Concurrency int
}

// Stats summarizes delivered counts across completed runs.
type Stats struct {
	Runs     int
	Mean     float64
	Median   float64
	Stdev    float64
	Margin95 float64
	Best     int
	Worst    int
}

// Report is the outcome of one benchmark: per-run results plus aggregate
// stats and the count of aborted runs.
type Report struct {
	Policy  policy.PolicyID
	Results []*mission.Result
	Failed  int
	Stats   Stats
}

// #endregion

// #region run

// Run executes n runs and aggregates them. Individual run failures are
// counted, not fatal; Run errors only when every run aborted.
func (b *Benchmark) Run(ctx context.Context, n int) (*Report, error) {
	if n <= 0 {
		return nil, fmt.Errorf("benchmark: run count %d", n)
	}

	workers := b.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	type outcome struct {
		res *mission.Result
		err error
	}
	jobs := make(chan int)
	outcomes := make(chan outcome, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				d := mission.NewDriver(b.NewClient(i), b.Policy, b.Sched)
				res, err := d.Run(ctx)
				outcomes <- outcome{res: res, err: err}
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	report := &Report{Policy: b.Policy.ID}
	for o := range outcomes {
		if o.err != nil {
			report.Failed++
			log.Printf("[BENCH] run aborted: %v", o.err)
			continue
		}
		report.Results = append(report.Results, o.res)
	}
	if len(report.Results) == 0 {
		return nil, fmt.Errorf("benchmark: all %d runs aborted", n)
	}

	if b.Store != nil {
		for _, res := range report.Results {
			if err := b.Store.RecordRun(res); err != nil {
				return nil, fmt.Errorf("benchmark: persist run %s: %w", res.RunID, err)
			}
		}
	}

	report.Stats = aggregate(report.Results)
	return report, nil
}

// #endregion

// #region stats

func aggregate(results []*mission.Result) Stats {
	delivered := make([]float64, len(results))
	for i, r := range results {
		delivered[i] = float64(r.Delivered)
	}
	sort.Float64s(delivered)

	st := Stats{
		Runs:  len(delivered),
		Best:  int(delivered[len(delivered)-1]),
		Worst: int(delivered[0]),
	}

	var sum float64
	for _, d := range delivered {
		sum += d
	}
	st.Mean = sum / float64(len(delivered))

	mid := len(delivered) / 2
	if len(delivered)%2 == 1 {
		st.Median = delivered[mid]
	} else {
		st.Median = (delivered[mid-1] + delivered[mid]) / 2
	}

	if len(delivered) > 1 {
		var ss float64
		for _, d := range delivered {
			ss += (d - st.Mean) * (d - st.Mean)
		}
		st.Stdev = math.Sqrt(ss / float64(len(delivered)-1))
		st.Margin95 = 1.96 * st.Stdev / math.Sqrt(float64(len(delivered)))
	}
	return st
}

// #endregion
