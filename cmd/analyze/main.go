package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examguard/batch"
	"examguard/common"
	"examguard/config"
	"examguard/detection"
	"examguard/embedding"
	"examguard/source"
	"examguard/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	log.SetOutput(os.Stderr)

	quizID := flag.String("quiz", config.DefaultQuizID, "Quiz identifier recorded in every report")
	input := flag.String("input", config.DefaultInputFile, "Submission document: file path or s3://bucket/key")
	questions := flag.String("questions", config.DefaultQuestions, "Comma separated question ids, or \"all\"")
	outDir := flag.String("out", ".", "Directory for results_q<id>.json files (empty disables file output)")
	s3Out := flag.String("s3-out", "", "Also upload reports to s3://bucket/prefix")
	useStore := flag.Bool("store", false, "Record reports in the report store (DB_DRIVER / DB_DSN)")
	minSim := flag.Float64("min", 0, "Minimum similarity (default 0.7)")
	suspicious := flag.Float64("suspicious", 0, "Suspicious threshold (default 0.85)")
	flag.Parse()

	if err := run(*quizID, *input, *questions, *outDir, *s3Out, *useStore, *minSim, *suspicious); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func run(quizID, input, questions, outDir, s3Out string, useStore bool, minSim, suspicious float64) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Println("=== Exam Similarity Analysis ===")

	provider, err := embedding.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	defer provider.Close()

	cfg := detection.ConfigFromEnv()
	if minSim != 0 {
		cfg.MinSimilarity = minSim
	}
	if suspicious != 0 {
		cfg.SuspiciousThreshold = suspicious
	}
	builder, err := detection.NewBuilder(provider, cfg)
	if err != nil {
		return err
	}

	var s3Client *common.S3
	_, _, inputIsS3 := common.ParseS3URI(input)
	if inputIsS3 || s3Out != "" {
		s3Client, err = common.NewS3(ctx, common.S3ConfigFromEnv())
		if err != nil {
			return err
		}
	}

	var sinks []batch.Sink
	if useStore {
		st, err := store.OpenFromEnv()
		if err != nil {
			return err
		}
		defer st.Close()
		sinks = append(sinks, batch.StoreSink{Store: st})
	}
	if outDir != "" {
		sinks = append(sinks, batch.FileSink{Dir: outDir})
	}
	if s3Out != "" {
		bucket, prefix, ok := parseS3Prefix(s3Out)
		if !ok {
			return fmt.Errorf("invalid -s3-out %q, want s3://bucket/prefix", s3Out)
		}
		sinks = append(sinks, batch.S3Sink{Client: s3Client, Bucket: bucket, Prefix: prefix})
	}

	var objects source.ObjectGetter
	if s3Client != nil {
		objects = s3Client
	}
	src, err := source.Open(input, objects)
	if err != nil {
		return err
	}

	log.Printf("Quiz %s, input %s, model %s", quizID, src.Name(), builder.ModelName())
	start := time.Now()
	outcomes, err := batch.NewRunner(builder, sinks...).Run(ctx, quizID, src, batch.ParseQuestions(questions))

	failed := 0
	for _, o := range outcomes {
		if o.Failure != nil {
			failed++
			continue
		}
		if outDir != "" {
			log.Printf("Analysis for question %s done, results stored in %s", o.QuestionID, batch.ResultFileName(o.QuestionID))
		}
	}
	log.Printf("=== %d question(s), %d failed, %s ===", len(outcomes), failed, time.Since(start).Round(time.Millisecond))
	return err
}

// parseS3Prefix accepts s3://bucket and s3://bucket/prefix.
func parseS3Prefix(uri string) (bucket, prefix string, ok bool) {
	if b, p, ok := common.ParseS3URI(uri); ok {
		return b, p, true
	}
	if b, _, ok := common.ParseS3URI(uri + "/_"); ok {
		return b, "", true
	}
	return "", "", false
}
