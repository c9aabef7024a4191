// Package scheduler hosts the keepalive job that pings sibling services so
// free-tier hosts do not put them to sleep.
package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// Keepalive periodically issues GET requests to the configured targets.
// Results only affect logs.
type Keepalive struct {
	cron    *cron.Cron
	targets []string
	client  *http.Client
	logger  *zap.Logger
}

// NewKeepalive builds the scheduler from configuration. Returns nil when
// disabled or no targets are configured.
func NewKeepalive(cfg config.KeepaliveConfig, logger *zap.Logger) (*Keepalive, error) {
	if !cfg.Enabled || len(cfg.TargetURLs) == 0 {
		return nil, nil
	}

	k := &Keepalive{
		cron:    cron.New(),
		targets: cfg.TargetURLs,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	if _, err := k.cron.AddFunc(cfg.Schedule, k.pingAll); err != nil {
		return nil, err
	}
	return k, nil
}

// Start launches the cron loop.
func (k *Keepalive) Start() {
	if k == nil {
		return
	}
	k.cron.Start()
	k.logger.Info("keepalive scheduler started", zap.Int("targets", len(k.targets)))
}

// Stop halts scheduling and waits for a running ping to finish.
func (k *Keepalive) Stop() {
	if k == nil {
		return
	}
	<-k.cron.Stop().Done()
}

func (k *Keepalive) pingAll() {
	for _, target := range k.targets {
		k.ping(target)
	}
}

func (k *Keepalive) ping(target string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		k.logger.Warn("keepalive request build failed", zap.String("target", target), zap.Error(err))
		return
	}
	resp, err := k.client.Do(req)
	if err != nil {
		k.logger.Warn("keepalive ping failed", zap.String("target", target), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		k.logger.Warn("keepalive ping returned error status",
			zap.String("target", target),
			zap.Int("status", resp.StatusCode))
		return
	}
	k.logger.Debug("keepalive ping ok", zap.String("target", target))
}
