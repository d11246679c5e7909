package queue

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

type testMessage struct {
	EpisodeID string `json:"episode_id"`
}

func TestDecodeSplitsMalformedRecords(t *testing.T) {
	event := events.SQSEvent{
		Records: []events.SQSMessage{
			{MessageId: "good-1", Body: `{"episode_id":"ep-1"}`},
			{MessageId: "bad-1", Body: `not json`},
			{MessageId: "good-2", Body: `{"episode_id":"ep-2"}`},
		},
	}

	decoded, malformed := Decode[testMessage](event)
	if len(decoded) != 2 {
		t.Fatalf("expected 2 decoded records, got %d", len(decoded))
	}
	if len(malformed) != 1 || malformed[0] != "bad-1" {
		t.Fatalf("expected bad-1 reported malformed, got %v", malformed)
	}
	if decoded[0].Message.EpisodeID != "ep-1" || decoded[1].Message.EpisodeID != "ep-2" {
		t.Fatalf("unexpected decoded payloads: %+v", decoded)
	}
}

func TestBatchResponseEmptyWhenNoFailures(t *testing.T) {
	resp := BatchResponse(nil)
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected empty batch response, got %+v", resp)
	}
}

func TestBatchResponseReportsFailedIDs(t *testing.T) {
	resp := BatchResponse([]string{"id-1", "id-2"})
	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("expected 2 batch item failures, got %d", len(resp.BatchItemFailures))
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "id-1" {
		t.Fatalf("unexpected first failure id: %+v", resp.BatchItemFailures[0])
	}
}
