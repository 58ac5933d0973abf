package dispatch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSRunner hands run requests to AWS SQS for the worker process to pick up.
type SQSRunner struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSRunner constructs an SQS-backed runner from JA_SQS_QUEUE_URL.
func NewSQSRunner(ctx context.Context) (*SQSRunner, error) {
	queueURL := strings.TrimSpace(os.Getenv("JA_SQS_QUEUE_URL"))
	if queueURL == "" {
		return nil, fmt.Errorf("JA_SQS_QUEUE_URL is required")
	}

	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSRunner{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

func (r *SQSRunner) Dispatch(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = r.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(r.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

var _ Runner = (*SQSRunner)(nil)
