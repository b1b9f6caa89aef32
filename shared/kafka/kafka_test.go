package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

type request struct {
	ID   string `json:"id"`
	Quiz string `json:"quiz"`
}

func TestTypedMessageHandler(t *testing.T) {
	var processed []string
	h := &TypedMessageHandler[request]{
		Validate: func(msg *request) error {
			if msg.ID == "" {
				return errors.New("missing id")
			}
			return nil
		},
		Process: func(ctx context.Context, msg *request) error {
			if msg.Quiz == "broken" {
				return errors.New("analysis failed")
			}
			processed = append(processed, msg.ID)
			return nil
		},
		MarkInvalid: true,
	}

	cases := []struct {
		name     string
		body     string
		wantMark bool
		wantErr  bool
	}{
		{"valid", `{"id":"r1","quiz":"q"}`, true, false},
		{"undecodable", `{not json`, true, false},
		{"invalid", `{"quiz":"q"}`, true, false},
		{"processing fails", `{"id":"r2","quiz":"broken"}`, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mark, err := h.HandleMessage(context.Background(), []byte(c.body))
			if mark != c.wantMark || (err != nil) != c.wantErr {
				t.Fatalf("HandleMessage = (%v, %v); want (%v, err=%v)", mark, err, c.wantMark, c.wantErr)
			}
		})
	}
	if len(processed) != 1 || processed[0] != "r1" {
		t.Fatalf("processed = %v; want [r1]", processed)
	}
}

func TestTypedMessageHandlerMarkFailed(t *testing.T) {
	h := &TypedMessageHandler[request]{
		Process:    func(ctx context.Context, msg *request) error { return errors.New("nope") },
		MarkFailed: true,
	}
	mark, err := h.HandleMessage(context.Background(), []byte(`{"id":"x"}`))
	if !mark || err == nil {
		t.Fatalf("HandleMessage = (%v, %v); want (true, error)", mark, err)
	}
}

func TestProducerPublishJSON(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got request
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != "r1" || got.Quiz != "quiz-1" {
			return fmt.Errorf("unexpected payload %s", val)
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFrom(mock)
	if err := p.PublishJSON(context.Background(), "analysis-results", "r1", request{ID: "r1", Quiz: "quiz-1"}); err != nil {
		t.Fatalf("PublishJSON error: %v", err)
	}
	if err := p.PublishJSON(context.Background(), "analysis-results", "r2", request{ID: "r2"}); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestProducerCanceledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.PublishJSON(ctx, "t", "k", request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
