package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Recorder(t *testing.T) {
	c := NewCollector("ideas_test")

	c.Increment("query_count", "ListIdeasQuery")
	c.Increment("query_count", "ListIdeasQuery")
	c.StartTimer("query_duration", "ListIdeasQuery").Stop()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Operations.WithLabelValues("query_count", "ListIdeasQuery")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.OperationDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("ideas_test")
	c.ObserveHTTP(http.MethodGet, "/", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ideas_test_http_requests_total{method="GET",route="/",status="200"} 1`)
}

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchMetrics_FlushOnClose(t *testing.T) {
	client := &fakeCloudWatch{}
	m := NewCloudWatchMetrics(client, "IdeaTracker/test", time.Hour, zap.NewNop())

	m.Increment("idea_saved", "created")
	m.StartTimer("store_duration", "get").Stop()
	m.Close()
	m.Increment("after_close", "ignored")

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "IdeaTracker/test", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 2)
	assert.Equal(t, "idea_saved", aws.ToString(in.MetricData[0].MetricName))
	assert.Equal(t, "store_duration", aws.ToString(in.MetricData[1].MetricName))
}

func TestTracer_DisabledRunsWork(t *testing.T) {
	tr := NewTracer("ideas", false)
	called := false

	err := tr.TraceFunction(context.Background(), "work", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestTracer_EnabledWithoutSegment(t *testing.T) {
	tr := NewTracer("ideas", true)

	err := tr.TraceFunction(context.Background(), "work", func(ctx context.Context) error {
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
}
