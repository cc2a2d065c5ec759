// Package scheduler runs the background ticket processing worker
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/natefinch/lumberjack.v2"

	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
	"github.com/mercat-labs/loyalty-platform/config"
)

var ticketsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tickets_processed_total",
		Help: "Tickets processed by the background worker, partitioned by final status",
	},
	[]string{"status"},
)

// TicketProcessor drains the pending ticket queue on a fixed interval.
// Tickets are processed oldest first, one at a time, with a short pause
// between consecutive tickets to avoid hammering the vision backend.
type TicketProcessor struct {
	ticketFlow businessflow.TicketFlow
	cfg        config.WorkerConfig
	logger     *log.Logger
	done       chan struct{}
}

// NewTicketProcessor creates the worker with its own rotating log file
func NewTicketProcessor(ticketFlow businessflow.TicketFlow, cfg config.WorkerConfig, logCfg config.LoggingConfig) *TicketProcessor {
	out := io.Writer(os.Stdout)
	if logCfg.WorkerLogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logCfg.WorkerLogFile,
			MaxSize:    logCfg.MaxSizeMB,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAgeDays,
			Compress:   logCfg.Compress,
		})
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}

	return &TicketProcessor{
		ticketFlow: ticketFlow,
		cfg:        cfg,
		logger:     log.New(out, "[ticket-worker] ", log.LstdFlags|log.LUTC),
		done:       make(chan struct{}),
	}
}

// Start launches the polling loop and returns a stop function. The stop
// function cancels the loop and blocks until the in-flight ticket, if any,
// has finished.
func (p *TicketProcessor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.cfg.PollInterval)
		defer ticker.Stop()

		p.logger.Printf("worker started, polling every %s, batch size %d", p.cfg.PollInterval, p.cfg.BatchSize)
		p.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.logger.Println("worker stopped")
				return
			case <-ticker.C:
				p.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-p.done
	}
}

func (p *TicketProcessor) runOnce(ctx context.Context) {
	pending, err := p.ticketFlow.ListPending(ctx, p.cfg.BatchSize)
	if err != nil {
		p.logger.Printf("pending ticket lookup failed: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	p.logger.Printf("processing %d pending tickets", len(pending))

	for i, ticket := range pending {
		// Finish the ticket in hand even when a shutdown is underway,
		// but do not start another one.
		if ctx.Err() != nil {
			p.logger.Printf("shutdown requested, %d tickets left in queue", len(pending)-i)
			return
		}

		// WithoutCancel lets the ticket in hand run to completion during shutdown
		result, err := p.ticketFlow.ProcessTicket(context.WithoutCancel(ctx), ticket.ID)
		if err != nil {
			ticketsProcessedTotal.WithLabelValues("error").Inc()
			p.logger.Printf("ticket %s failed: %v", ticket.ID, err)
		} else {
			ticketsProcessedTotal.WithLabelValues(result.Status).Inc()
			p.logger.Printf("ticket %s finished with status %s", ticket.ID, result.Status)
		}

		if i < len(pending)-1 && p.cfg.TicketSpacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.TicketSpacing):
			}
		}
	}
}
