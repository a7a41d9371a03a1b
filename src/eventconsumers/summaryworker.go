package eventconsumers

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
)

// SummaryWorker triggers the scheduled watchlist pushes. Each configured
// wall-clock time fires at most once per day.
type SummaryWorker struct {
	wg        *sync.WaitGroup
	pushTimes []string
	pushed    map[string]struct{}
}

// shouldPush reports whether a summary is due at now, recording the firing
// so the same slot cannot fire twice on the same day.
func (w *SummaryWorker) shouldPush(now time.Time) bool {
	clock := now.Format("15:04")

	for _, pushTime := range w.pushTimes {
		if clock != pushTime {
			continue
		}

		key := fmt.Sprintf("%s@%s", now.Format("2006-01-02"), pushTime)
		if _, ok := w.pushed[key]; ok {
			return false
		}

		w.pushed[key] = struct{}{}
		return true
	}

	return false
}

func (w *SummaryWorker) Start(ctx context.Context) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				if !w.shouldPush(now) {
					continue
				}

				log.Infof("SummaryWorker: pushing scheduled summary at %s", now.Format("15:04"))

				pubsub.Publish("SummaryWorker", pubsub.StatusQueryEvent, &eventmodels.StatusQueryEvent{
					Meta: eventmodels.NewMetaData("SummaryWorker"),
					Kind: eventmodels.StatusQuerySummary,
				})
			case <-ctx.Done():
				log.Info("stopping SummaryWorker consumer")
				return
			}
		}
	}()
}

func NewSummaryWorker(wg *sync.WaitGroup, pushTimes []string) *SummaryWorker {
	return &SummaryWorker{
		wg:        wg,
		pushTimes: pushTimes,
		pushed:    make(map[string]struct{}),
	}
}
