package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client used for metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics sends business metrics to CloudWatch. Failures are
// logged and never reach the caller.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new CloudWatch recorder. A nil client
// makes every call a no-op.
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchMetrics{namespace: namespace, client: client, logger: logger}
}

// RecordMatchRun records match latency and result counts
func (m *CloudWatchMetrics) RecordMatchRun(ctx context.Context, candidates, matches int, d time.Duration) {
	now := time.Now()
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("MatchLatency"),
			Value:      aws.Float64(float64(d.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
		{
			MetricName: aws.String("MatchCandidates"),
			Value:      aws.Float64(float64(candidates)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
		{
			MetricName: aws.String("MatchResults"),
			Value:      aws.Float64(float64(matches)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
	})
}

// RecordEvent counts a domain event by name
func (m *CloudWatchMetrics) RecordEvent(ctx context.Context, name string) {
	m.put(ctx, []types.MetricDatum{{
		MetricName: aws.String("DomainEvents"),
		Dimensions: []types.Dimension{{Name: aws.String("Event"), Value: aws.String(name)}},
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	}})
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []types.MetricDatum) {
	if m.client == nil {
		return
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

// Recorder is what the services report to
type Recorder interface {
	RecordMatchRun(ctx context.Context, candidates, matches int, d time.Duration)
	RecordEvent(ctx context.Context, name string)
}

// MultiRecorder fans every call out to several recorders
type MultiRecorder []Recorder

func (m MultiRecorder) RecordMatchRun(ctx context.Context, candidates, matches int, d time.Duration) {
	for _, r := range m {
		r.RecordMatchRun(ctx, candidates, matches, d)
	}
}

func (m MultiRecorder) RecordEvent(ctx context.Context, name string) {
	for _, r := range m {
		r.RecordEvent(ctx, name)
	}
}
