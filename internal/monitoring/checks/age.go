package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
	"github.com/vietddude/aleph-monitor/internal/monitoring/metrics"
)

// FeedSource returns the message feed of a node for a sender address.
type FeedSource interface {
	Name() string
	Messages(ctx context.Context, address string) ([]domain.Message, error)
}

// AgeChecker checks that network metrics are being published on both the
// monitored node and a reference node.
type AgeChecker struct {
	monitored FeedSource
	reference FeedSource
	address   string
	maxAge    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewAgeChecker creates an AgeChecker reading messages sent by address.
func NewAgeChecker(
	monitored, reference FeedSource,
	address string,
	maxAge time.Duration,
	logger *slog.Logger,
) *AgeChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgeChecker{
		monitored: monitored,
		reference: reference,
		address:   address,
		maxAge:    maxAge,
		now:       time.Now,
		logger:    logger.With("check", metrics.CheckMetricsAge),
	}
}

// SetClock replaces the clock used to compute ages.
func (c *AgeChecker) SetClock(now func() time.Time) {
	c.now = now
}

// MetricsAgeByNode returns the age of the most recent network metrics message
// on each node. Both ages are measured against the same instant.
func (c *AgeChecker) MetricsAgeByNode(ctx context.Context) (domain.MetricsAge, error) {
	start := time.Now()

	result, err := c.metricsAgeByNode(ctx)
	elapsed := time.Since(start)
	if err != nil {
		kind := domain.ClassifyError(err)
		metrics.RecordCheck(metrics.CheckMetricsAge, string(kind), elapsed.Seconds())
		c.logger.Error("Metrics age check failed", "kind", kind, "error", err, "duration", elapsed)
		return domain.MetricsAge{}, err
	}

	metrics.RecordCheck(metrics.CheckMetricsAge, resultLabel(result.Acceptable), elapsed.Seconds())
	metrics.MetricsAgeSeconds.WithLabelValues(c.monitored.Name()).Set(result.ScoringNode)
	metrics.MetricsAgeSeconds.WithLabelValues(c.reference.Name()).Set(result.ReferenceNode)

	c.logger.Debug("Metrics age check complete",
		"acceptable", result.Acceptable,
		"scoring_node", result.ScoringNode,
		"reference_node", result.ReferenceNode,
		"duration", elapsed,
	)
	return result, nil
}

func (c *AgeChecker) metricsAgeByNode(ctx context.Context) (domain.MetricsAge, error) {
	now := c.now()

	var scoringAge, referenceAge float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		age, err := c.RecentMetricsAge(gctx, c.monitored, now)
		scoringAge = age
		return err
	})
	g.Go(func() error {
		age, err := c.RecentMetricsAge(gctx, c.reference, now)
		referenceAge = age
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MetricsAge{}, err
	}

	maxAge := c.maxAge.Seconds()
	return domain.MetricsAge{
		Acceptable:    scoringAge < maxAge && referenceAge < maxAge,
		ScoringNode:   scoringAge,
		ReferenceNode: referenceAge,
	}, nil
}

// RecentMetricsAge returns how many seconds before now the most recent
// network metrics message of source was signed. The age is negative when the
// message claims to be from the future.
func (c *AgeChecker) RecentMetricsAge(ctx context.Context, source FeedSource, now time.Time) (float64, error) {
	messages, err := source.Messages(ctx, c.address)
	if err != nil {
		return 0, fmt.Errorf("fetch %s messages: %w", source.Name(), err)
	}

	recent := FilterMetricsMessages(messages)
	if len(recent) == 0 {
		return 0, fmt.Errorf("%s: %w", source.Name(), domain.ErrEmptyFeed)
	}

	latest := recent[0]
	age, err := latest.Content.AgeSeconds(now)
	if err != nil {
		return 0, fmt.Errorf("%s: most recent metrics message %s: %w", source.Name(), latest.ItemHash, err)
	}

	// The feed is returned newest first; only report when that does not hold.
	for _, m := range recent[1:] {
		if m.Content.Time != nil && *m.Content.Time > *latest.Content.Time {
			c.logger.Warn("Message feed is not ordered newest first",
				"node", source.Name(),
				"first_time", *latest.Content.Time,
				"newer_time", *m.Content.Time,
			)
			break
		}
	}

	return age, nil
}

// FilterMetricsMessages returns the network metrics messages of messages,
// keeping their order. Feeds usually mix them with other message types.
func FilterMetricsMessages(messages []domain.Message) []domain.Message {
	filtered := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Content.Type == domain.MessageTypeNetworkMetrics {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
