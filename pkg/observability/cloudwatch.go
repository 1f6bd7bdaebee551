package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// cloudWatchBatchSize is the number of datums sent per PutMetricData call.
const cloudWatchBatchSize = 20

// PutMetricDataAPI is the part of the CloudWatch client used here.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics is a Recorder that ships datums to CloudWatch from a
// background goroutine. Datums are batched and flushed every interval or when
// a batch is full. Close flushes what is left.
type CloudWatchMetrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
	interval  time.Duration

	mu     sync.RWMutex
	closed bool
	data   chan types.MetricDatum
	done   chan struct{}
}

// NewCloudWatchMetrics starts the flusher.
func NewCloudWatchMetrics(client PutMetricDataAPI, namespace string, interval time.Duration, logger *zap.Logger) *CloudWatchMetrics {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m := &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		interval:  interval,
		data:      make(chan types.MetricDatum, 256),
		done:      make(chan struct{}),
	}
	go m.run()
	return m
}

// Increment implements Recorder
func (m *CloudWatchMetrics) Increment(metric, label string) {
	m.enqueue(metric, label, 1, types.StandardUnitCount)
}

// StartTimer implements Recorder
func (m *CloudWatchMetrics) StartTimer(metric, label string) Timer {
	return &cloudWatchTimer{m: m, metric: metric, label: label, start: time.Now()}
}

// Close stops the flusher after sending every queued datum.
func (m *CloudWatchMetrics) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.data)
	m.mu.Unlock()

	<-m.done
}

func (m *CloudWatchMetrics) enqueue(metric, label string, value float64, unit types.StandardUnit) {
	datum := types.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: []types.Dimension{
			{
				Name:  aws.String("Label"),
				Value: aws.String(label),
			},
		},
		Value:     aws.Float64(value),
		Unit:      unit,
		Timestamp: aws.Time(time.Now()),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.data <- datum:
	default:
		m.logger.Warn("Dropping metric, buffer full", zap.String("metric", metric))
	}
}

func (m *CloudWatchMetrics) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	batch := make([]types.MetricDatum, 0, cloudWatchBatchSize)
	for {
		select {
		case d, ok := <-m.data:
			if !ok {
				m.flush(batch)
				return
			}
			batch = append(batch, d)
			if len(batch) == cloudWatchBatchSize {
				m.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			m.flush(batch)
			batch = batch[:0]
		}
	}
}

func (m *CloudWatchMetrics) flush(batch []types.MetricDatum) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: append([]types.MetricDatum(nil), batch...),
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		// metrics never fail the operation they measure
		m.logger.Warn("Failed to send metrics", zap.Error(err), zap.Int("count", len(batch)))
	}
}

type cloudWatchTimer struct {
	m      *CloudWatchMetrics
	metric string
	label  string
	start  time.Time
}

func (t *cloudWatchTimer) Stop() {
	t.m.enqueue(t.metric, t.label, float64(time.Since(t.start).Milliseconds()), types.StandardUnitMilliseconds)
}
