package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/engine"
)

// KafkaConfig names the topic and consumer group to read. The topic should
// have a single partition, or be keyed so that chain order is preserved
// within the partition the indexer reads.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// Kafka consumes JSON envelopes from a topic. Offsets are only committed
// when the runner commits a batch.
type Kafka struct {
	client  *kgo.Client
	logger  *slog.Logger
	pending []*kgo.Record
}

// NewKafka creates a consumer group client. Extra options are appended
// after the defaults.
func NewKafka(cfg KafkaConfig, logger *slog.Logger, opts ...kgo.Opt) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("kafka: topic and group are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return &Kafka{client: client, logger: logger}, nil
}

// Fetch blocks until records are available or ctx is done.
func (k *Kafka) Fetch(ctx context.Context, limit int) ([]engine.Delivery, error) {
	fetches := k.client.PollRecords(ctx, limit)
	if fetches.IsClientClosed() {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fetchErr error
	fetches.EachError(func(topic string, partition int32, err error) {
		k.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		if fetchErr == nil {
			fetchErr = fmt.Errorf("kafka: %s/%d: %w", topic, partition, err)
		}
	})
	if fetchErr != nil {
		return nil, fetchErr
	}

	var out []engine.Delivery
	fetches.EachRecord(func(r *kgo.Record) {
		ev, err := chain.Unmarshal(r.Value)
		out = append(out, engine.Delivery{
			Event: ev,
			Err:   err,
			Ref:   fmt.Sprintf("%s/%d@%d", r.Topic, r.Partition, r.Offset),
		})
		k.pending = append(k.pending, r)
	})
	return out, nil
}

// Commit commits the offsets of every record fetched since the last
// commit.
func (k *Kafka) Commit(ctx context.Context) error {
	if len(k.pending) == 0 {
		return nil
	}
	if err := k.client.CommitRecords(ctx, k.pending...); err != nil {
		return fmt.Errorf("kafka: commit offsets: %w", err)
	}
	k.pending = k.pending[:0]
	return nil
}

// Health pings the brokers.
func (k *Kafka) Health(ctx context.Context) error {
	return k.client.Ping(ctx)
}

// Close leaves the group and closes the client.
func (k *Kafka) Close() {
	k.client.Close()
}

var _ engine.Source = (*Kafka)(nil)
