package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestParseS3URI(t *testing.T) {
	cases := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://exams/quiz/answers.json", "exams", "quiz/answers.json", true},
		{"s3://exams/", "", "", false},
		{"s3://", "", "", false},
		{"answers.json", "", "", false},
		{"/tmp/answers.json", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.uri, func(t *testing.T) {
			b, k, ok := ParseS3URI(c.uri)
			if ok != c.ok || b != c.bucket || k != c.key {
				t.Fatalf("ParseS3URI(%q) = (%q, %q, %v); want (%q, %q, %v)", c.uri, b, k, ok, c.bucket, c.key, c.ok)
			}
		})
	}
}

func TestJoinKey(t *testing.T) {
	cases := map[string]string{
		"":          "results_q1.json",
		"reports":   "reports/results_q1.json",
		"/reports/": "reports/results_q1.json",
		"a/b":       "a/b/results_q1.json",
	}
	for prefix, want := range cases {
		if got := JoinKey(prefix, "results_q1.json"); got != want {
			t.Fatalf("JoinKey(%q) = %q; want %q", prefix, got, want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if IsNotFound(nil) {
		t.Fatalf("nil is not a not-found error")
	}
	if !IsNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}) {
		t.Fatalf("NoSuchKey should be not-found")
	}
	if !IsNotFound(fmt.Errorf("get object: %w", &smithy.GenericAPIError{Code: "NotFound"})) {
		t.Fatalf("wrapped NotFound should be not-found")
	}
	if IsNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Fatalf("AccessDenied is not a not-found error")
	}
	if IsNotFound(errors.New("connection reset")) {
		t.Fatalf("plain errors are not not-found")
	}
}
