// Package metrics publishes pipeline counters.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/aws"
)

// Metric names.
const (
	ScansAccepted       = "ScansAccepted"
	ScansDebounced      = "ScansDebounced"
	ItemsAdded          = "ItemsAdded"
	UnknownProducts     = "UnknownProducts"
	FulfillmentFailures = "FulfillmentFailures"
)

// Recorder counts pipeline events. source is the scan source and becomes a dimension.
type Recorder interface {
	Count(ctx context.Context, name, source string)
}

// Nop discards every count.
type Nop struct{}

// Count implements Recorder.
func (Nop) Count(context.Context, string, string) {}

// CloudWatch sends one datum per event. Publish failures are logged and otherwise ignored.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	timeout   time.Duration
	logger    *zap.Logger
	nowFunc   func() time.Time
}

// NewCloudWatch returns a recorder publishing under namespace.
func NewCloudWatch(client aws.CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		timeout:   2 * time.Second,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Count implements Recorder.
func (c *CloudWatch) Count(ctx context.Context, name, source string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	now := c.nowFunc()
	value := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &c.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("Source"), Value: &source},
				},
			},
		},
	}
	if _, err := c.client.PutMetricData(ctx, input); err != nil {
		c.logger.Warn("metric publish failed", zap.String("metric", name), zap.Error(err))
	}
}

func awsString(s string) *string { return &s }
