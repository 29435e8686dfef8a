package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"estate/internal/platform/config"
	"estate/pkg/platform/audit"
	"estate/pkg/platform/audit/publisher"
	"estate/pkg/platform/audit/publishers/kafka"
	auditmemory "estate/pkg/platform/audit/store/memory"
	auditpostgres "estate/pkg/platform/audit/store/postgres"
)

// newAuditPublisher streams audit events to Kafka when brokers are configured,
// otherwise appends them to the registry database when it is postgres, and
// keeps them in memory as a last resort. The returned func flushes and releases it.
func newAuditPublisher(ctx context.Context, cfg config.KafkaConfig, db *sql.DB, log *slog.Logger) (*publisher.Publisher, func(), error) {
	var (
		sink    audit.Store
		release = func() {}
	)
	switch {
	case len(cfg.Brokers) == 0 && db != nil:
		pgSink := auditpostgres.New(db)
		if err := pgSink.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("audit events appended to postgres", "table", "audit_events")
		sink = pgSink
	case len(cfg.Brokers) == 0:
		log.Info("audit events kept in memory; set ESTATE_KAFKA_BROKERS to stream them")
		sink = auditmemory.NewInMemoryStore()
	default:
		kafkaSink, err := kafka.New(cfg.Brokers, cfg.Topic)
		if err != nil {
			return nil, nil, err
		}
		if err := kafkaSink.Ping(ctx); err != nil {
			kafkaSink.Close()
			return nil, nil, fmt.Errorf("reach kafka: %w", err)
		}
		if err := kafkaSink.EnsureTopic(ctx, 1, 1); err != nil {
			kafkaSink.Close()
			return nil, nil, err
		}
		log.Info("audit events streaming to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
		sink = kafkaSink
		release = kafkaSink.Close
	}

	pub := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.AsyncBuffer),
		publisher.WithLogger(log),
	)
	return pub, func() {
		pub.Close()
		release()
	}, nil
}
