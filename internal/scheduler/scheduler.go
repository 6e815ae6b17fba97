package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nantuckethouses/server/internal/market"
	"nantuckethouses/server/internal/models"
	"nantuckethouses/server/internal/social"
)

// Scheduler posts a daily market update to the configured Meta page.
// It ticks every minute and fires once when the configured hour starts.
type Scheduler struct {
	logger    *logrus.Logger
	market    *market.Service
	publisher *social.Publisher
	siteURL   string
	postHour  int

	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex
}

func NewScheduler(logger *logrus.Logger, marketSvc *market.Service, publisher *social.Publisher, siteURL string, postHour int) *Scheduler {
	return &Scheduler{
		logger:    logger,
		market:    marketSvc,
		publisher: publisher,
		siteURL:   siteURL,
		postHour:  postHour,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled posting loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			if t.Hour() == s.postHour && t.Minute() == 0 {
				s.postUpdate()
			}
		}
	}
}

// postUpdate builds and publishes one market update. Failures are logged
// and retried at the next scheduled slot, never sooner.
func (s *Scheduler) postUpdate() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.logger.Info("Starting scheduled market update post")

	g, gctx := errgroup.WithContext(ctx)
	var (
		aggregates *models.MarketAggregates
		insights   []models.Insight
	)
	g.Go(func() error {
		var err error
		aggregates, err = s.market.MarketStats(gctx, "")
		return err
	})
	g.Go(func() error {
		insights = s.market.Insights(gctx, time.Now())
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("Scheduled market update failed to build")
		return
	}

	text := social.BuildUpdatePost(*aggregates, insights, s.siteURL)
	postID, err := s.publisher.Publish(ctx, text)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled market update failed to post")
		return
	}

	s.logger.WithField("post_id", postID).Info("Scheduled market update posted")
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
