package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examguard/batch"
	"examguard/common"
	"examguard/config"
	"examguard/deduplication"
	"examguard/detection"
	"examguard/embedding"
	"examguard/shared/kafka"
	sharedtypes "examguard/shared/types"
	"examguard/source"
	"examguard/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	brokers := config.SplitList(config.GetEnvOrDefault("KAFKA_BOOTSTRAP_SERVERS", "kafka:9092"))
	requestTopic := config.GetEnvOrDefault("KAFKA_REQUEST_TOPIC", "analysis-requests")
	resultTopic := config.GetEnvOrDefault("KAFKA_RESULT_TOPIC", "analysis-results")
	groupID := config.GetEnvOrDefault("KAFKA_GROUP_ID", "examguard-analysis-workers")

	provider, err := embedding.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	defer provider.Close()

	builder, err := detection.NewBuilder(provider, detection.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Invalid analysis configuration: %v", err)
	}

	var sinks []batch.Sink
	if st, err := store.OpenFromEnv(); err != nil {
		log.Printf("Warning: report store disabled: %v", err)
	} else {
		defer st.Close()
		sinks = append(sinks, batch.StoreSink{Store: st})
	}
	if dir := config.GetEnvOrDefault("OUTPUT_DIR", ""); dir != "" {
		sinks = append(sinks, batch.FileSink{Dir: dir})
	}

	var objects source.ObjectGetter
	s3Client, err := common.NewS3(context.Background(), common.S3ConfigFromEnv())
	if err != nil {
		log.Printf("Warning: failed to init S3 client: %v (s3:// inputs disabled)", err)
	} else {
		objects = s3Client
		if bucket := config.GetEnvOrDefault("S3_BUCKET", ""); bucket != "" {
			sinks = append(sinks, batch.S3Sink{Client: s3Client, Bucket: bucket, Prefix: config.GetEnvOrDefault("S3_PREFIX", "")})
		}
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer producer.Close()

	var seen requestFilter
	if config.GetEnvBool("REQUEST_DEDUP") {
		bloom, err := deduplication.NewRedisBloom(deduplication.BloomConfigFromEnv())
		if err != nil {
			log.Printf("Warning: request de-duplication disabled: %v", err)
		} else {
			defer bloom.Close()
			seen = bloom
		}
	}

	w := &worker{
		builder:     builder,
		objects:     objects,
		sinks:       sinks,
		events:      producer,
		seen:        seen,
		resultTopic: resultTopic,
		clock:       time.Now,
	}

	handler := &kafka.TypedMessageHandler[sharedtypes.AnalysisRequest]{
		Validate: func(msg *sharedtypes.AnalysisRequest) error { return msg.Validate() },
		Process:  w.handle,
		// Failures are reported through result events, not redelivered.
		MarkInvalid: true,
		MarkFailed:  true,
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:    brokers,
		Topic:      requestTopic,
		GroupID:    groupID,
		Handler:    handler,
		FromOldest: true,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start Kafka consumer: %v", err)
	}

	log.Printf("🤖 Analysis worker")
	log.Printf("   Brokers:       %v", brokers)
	log.Printf("   Requests:      %s", requestTopic)
	log.Printf("   Results:       %s", resultTopic)
	log.Printf("   Model:         %s", builder.ModelName())
	log.Println("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-consumer.Done():
		log.Println("Warning: Kafka consume loop exited")
	}

	log.Println("Shutting down...")
	cancel()
	if err := consumer.Close(); err != nil {
		log.Printf("Kafka consumer close error: %v", err)
	}
	log.Println("Worker stopped")
}
