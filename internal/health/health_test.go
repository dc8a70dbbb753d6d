package health

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	th := Thresholds{Suspected: 10 * time.Second, Unhealthy: 20 * time.Second}

	cases := []struct {
		elapsed time.Duration
		want    Status
	}{
		{0, Healthy},
		{9 * time.Second, Healthy},
		{10 * time.Second, Healthy},
		{11 * time.Second, Suspected},
		{20 * time.Second, Suspected},
		{21 * time.Second, Unhealthy},
		{time.Hour, Unhealthy},
	}

	for _, c := range cases {
		if got := Classify(c.elapsed, th); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.elapsed, got, c.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if Healthy.String() != "Healthy" {
		t.Fatalf("unexpected Healthy.String(): %q", Healthy.String())
	}
	if Status(99).String() != "Unknown" {
		t.Fatalf("unexpected fallback string: %q", Status(99).String())
	}
}
