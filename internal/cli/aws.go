package cli

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/apresai/podcasto-pipeline/internal/queue"
)

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

func newSender[T any](client *sqs.Client, queueURL string) *queue.Sender[T] {
	return queue.NewSender[T](client, queueURL)
}
