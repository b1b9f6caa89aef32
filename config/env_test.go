package config

import (
	"reflect"
	"testing"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("EG_STRING", " value ")
	t.Setenv("EG_INT", "12")
	t.Setenv("EG_BAD_INT", "twelve")
	t.Setenv("EG_FLOAT", "0.75")
	t.Setenv("EG_BOOL", "true")

	if got := GetEnvOrDefault("EG_STRING", "d"); got != "value" {
		t.Fatalf("GetEnvOrDefault = %q", got)
	}
	if got := GetEnvOrDefault("EG_MISSING", "d"); got != "d" {
		t.Fatalf("GetEnvOrDefault default = %q", got)
	}
	if got := GetEnvIntOrDefault("EG_INT", 1); got != 12 {
		t.Fatalf("GetEnvIntOrDefault = %d", got)
	}
	if got := GetEnvIntOrDefault("EG_BAD_INT", 3); got != 3 {
		t.Fatalf("GetEnvIntOrDefault fallback = %d", got)
	}
	if got := GetEnvFloatOrDefault("EG_FLOAT", 0.1); got != 0.75 {
		t.Fatalf("GetEnvFloatOrDefault = %f", got)
	}
	if !GetEnvBool("EG_BOOL") || GetEnvBool("EG_MISSING") {
		t.Fatalf("GetEnvBool mismatch")
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" a, ,b,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("SplitList = %v", got)
	}
	if got := SplitList(""); got != nil {
		t.Fatalf("SplitList(\"\") = %v", got)
	}
}
