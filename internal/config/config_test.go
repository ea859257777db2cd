package config

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	d, err := Duration("90s", time.Minute)
	if err != nil || d != 90*time.Second {
		t.Fatalf("expected 90s, got %v (err %v)", d, err)
	}

	d, err = Duration("", time.Minute)
	if err != nil || d != time.Minute {
		t.Fatalf("empty string must yield fallback, got %v (err %v)", d, err)
	}

	d, err = Duration("ninety seconds", time.Minute)
	if err == nil {
		t.Fatal("malformed duration must report a parse error")
	}
	if d != time.Minute {
		t.Fatalf("malformed duration must yield fallback, got %v", d)
	}
}
