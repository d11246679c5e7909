// Package queue adapts the pipeline's three durable SQS queues
// (collect/preprocess/audio-generation) to typed Go payloads, and turns
// an incoming Lambda SQSEvent into a slice of decoded messages plus the
// partial-batch-failure response the handler must return.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Sender publishes a typed message onto an SQS queue.
type Sender[T any] struct {
	client   *sqs.Client
	queueURL string
}

// NewSender builds a Sender bound to one queue URL.
func NewSender[T any](client *sqs.Client, queueURL string) *Sender[T] {
	return &Sender[T]{client: client, queueURL: queueURL}
}

// Send marshals msg to JSON and enqueues it.
func (s *Sender[T]) Send(ctx context.Context, msg T) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("queue: send message: %w", err)
	}
	return nil
}

// Record pairs one decoded message with the raw SQS record it came
// from, so a handler can report the right MessageId back in a batch
// failure.
type Record[T any] struct {
	MessageID string
	Message   T
}

// Decode unmarshals every record in an incoming SQSEvent into typed
// messages. A record that fails to decode is reported back in
// malformed with its MessageId rather than aborting the whole batch —
// one poison message should not block its siblings.
func Decode[T any](event events.SQSEvent) (decoded []Record[T], malformed []string) {
	for _, rec := range event.Records {
		var msg T
		if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
			malformed = append(malformed, rec.MessageId)
			continue
		}
		decoded = append(decoded, Record[T]{MessageID: rec.MessageId, Message: msg})
	}
	return decoded, malformed
}

// BatchResponse builds an SQSEventResponse reporting every message ID
// in failedIDs as a batch item failure, so SQS redelivers only those
// messages instead of the whole batch.
func BatchResponse(failedIDs []string) events.SQSEventResponse {
	if len(failedIDs) == 0 {
		return events.SQSEventResponse{}
	}
	failures := make([]events.SQSBatchItemFailure, 0, len(failedIDs))
	for _, id := range failedIDs {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}
