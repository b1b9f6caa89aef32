package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"examguard/batch"
	"examguard/config"
	"examguard/deduplication"
	"examguard/detection"
	sharedtypes "examguard/shared/types"
	"examguard/source"
)

type eventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

// requestFilter remembers request fingerprints across redeliveries.
type requestFilter interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Add(ctx context.Context, fingerprint string) error
}

// worker turns analysis requests into per-question reports and events.
type worker struct {
	builder     *detection.Builder
	objects     source.ObjectGetter
	sinks       []batch.Sink
	events      eventPublisher
	seen        requestFilter
	resultTopic string
	clock       func() time.Time
}

func (w *worker) handle(ctx context.Context, req *sharedtypes.AnalysisRequest) error {
	builder, err := w.builder.WithThresholds(req.MinimumSimilarity, req.SuspiciousThreshold)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.RequestID, err)
	}
	src, err := source.Open(req.Input, w.objects)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.RequestID, err)
	}

	quizID := req.QuizID
	if quizID == "" {
		quizID = config.DefaultQuizID
	}

	sinks := make([]batch.Sink, 0, len(w.sinks)+1)
	sinks = append(sinks, w.sinks...)
	// Last, so report ids assigned by a store sink are published.
	sinks = append(sinks, &eventSink{
		publisher: w.events,
		topic:     w.resultTopic,
		requestID: req.RequestID,
		clock:     w.clock,
	})

	fingerprint := deduplication.Fingerprint(req)
	if w.seen != nil {
		dup, err := w.seen.Exists(ctx, fingerprint)
		if err != nil {
			log.Printf("Warning: duplicate check failed for request %s: %v", req.RequestID, err)
		} else if dup {
			log.Printf("⏭️  Skipping request %s, already handled", req.RequestID)
			return nil
		}
	}

	log.Printf("🔎 Analysing request %s: quiz=%s input=%s questions=%v", req.RequestID, quizID, src.Name(), req.Questions)
	outcomes, err := batch.NewRunner(builder, sinks...).Run(ctx, quizID, src, req.Questions)
	log.Printf("Request %s finished: %d question(s)", req.RequestID, len(outcomes))
	if err != nil {
		return err
	}

	if w.seen != nil {
		if err := w.seen.Add(ctx, fingerprint); err != nil {
			log.Printf("Warning: failed to record request %s: %v", req.RequestID, err)
		}
	}
	return nil
}

// eventSink publishes an AnalysisCompletedEvent per outcome.
type eventSink struct {
	publisher eventPublisher
	topic     string
	requestID string
	clock     func() time.Time
}

func (e *eventSink) Name() string { return "kafka topic " + e.topic }

func (e *eventSink) Write(ctx context.Context, quizID string, outcome batch.Outcome) error {
	event := sharedtypes.AnalysisCompletedEvent{
		RequestID:   e.requestID,
		QuizID:      quizID,
		QuestionID:  outcome.QuestionID,
		CompletedAt: e.clock().UTC(),
	}
	if outcome.Failure != nil {
		event.Status = sharedtypes.StatusFailed
		event.Error = outcome.Failure.Error
		event.Code = outcome.Failure.Code
	} else {
		summary := outcome.Report.Summary
		event.Status = sharedtypes.StatusCompleted
		event.ReportID = outcome.Report.ID
		event.Summary = &summary
	}
	return e.publisher.PublishJSON(ctx, e.topic, e.requestID, event)
}
