package splitscanner

import (
	"context"
	"sync"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
)

// ScannerClient polls the reference data api for upcoming reverse splits
// and publishes a WatchlistAddEvent for each. The watchlist's first-write
// policy makes re-publishing the same ticker harmless.
type ScannerClient struct {
	wg       *sync.WaitGroup
	client   *polygon.Client
	interval time.Duration
}

func listParams(now time.Time) *polygonmodels.ListSplitsParams {
	return polygonmodels.ListSplitsParams{}.
		WithReverseSplit(true).
		WithExecutionDate(polygonmodels.GTE, polygonmodels.Date(now))
}

func watchlistAddFromSplit(split polygonmodels.Split) *eventmodels.WatchlistAddEvent {
	return &eventmodels.WatchlistAddEvent{
		Meta:      eventmodels.NewMetaData("ScannerClient"),
		Ticker:    split.Ticker,
		SplitDate: time.Time(split.ExecutionDate).Format("2006-01-02"),
	}
}

func (s *ScannerClient) scan(ctx context.Context) {
	iter := s.client.ListSplits(ctx, listParams(time.Now().UTC()))

	count := 0
	for iter.Next() {
		pubsub.Publish("ScannerClient", pubsub.WatchlistAddEvent, watchlistAddFromSplit(iter.Item()))
		count += 1
	}

	if err := iter.Err(); err != nil {
		log.Errorf("ScannerClient.scan: %v", err)
		return
	}

	log.Infof("ScannerClient: published %d upcoming reverse splits", count)
}

func (s *ScannerClient) Start(ctx context.Context) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.scan(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.scan(ctx)
			case <-ctx.Done():
				log.Info("stopping ScannerClient producer")
				return
			}
		}
	}()
}

func NewScannerClient(wg *sync.WaitGroup, apiKey string, interval time.Duration) *ScannerClient {
	return &ScannerClient{
		wg:       wg,
		client:   polygon.New(apiKey),
		interval: interval,
	}
}
