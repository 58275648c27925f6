package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ehcaw/codegraph/internal/indexer"
)

// waitPollInterval is how often the wait loop re-reads the counters.
const waitPollInterval = 100 * time.Millisecond

// waitForEmbeddings blocks until every enqueued chunk has been embedded or
// definitively failed. The totals can still grow while waiting (detached
// blocking sends from producers), so both counters are re-read each tick and
// the bar length follows.
func waitForEmbeddings(counters *indexer.Counters, quiet bool) {
	fmt.Println("Waiting for all embedding jobs to complete...")

	total := counters.TotalChunks()
	if total == 0 {
		return
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions64(total,
			progressbar.OptionSetDescription("Embedding"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("emb/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	for {
		completed := counters.Completed()
		if now := counters.TotalChunks(); now > total {
			total = now
			if bar != nil {
				bar.ChangeMax64(total)
			}
		}
		if bar != nil {
			bar.Set64(completed)
		}
		if completed >= total {
			break
		}
		time.Sleep(waitPollInterval)
	}

	if bar != nil {
		bar.Finish()
	}
	fmt.Printf("\nTotal embeddings completed: %d\n", counters.Completed())
}
