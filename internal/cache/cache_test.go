package cache

import (
	"testing"
	"time"

	"styleaudit/internal/model"
)

func TestRunRoundTrip(t *testing.T) {
	Init(time.Minute)

	if _, ok := GetRun("http://a.test", "load", ""); ok {
		t.Fatal("empty store returned a run")
	}

	SetRun("http://a.test", "load", "", model.AuditRun{ID: "r1", TotalIssues: 2})

	run, ok := GetRun("http://a.test", "load", "")
	if !ok || run.ID != "r1" || run.TotalIssues != 2 {
		t.Errorf("GetRun() = %+v, %v", run, ok)
	}
	if _, ok := GetRun("http://a.test", "load", "Dark mode"); ok {
		t.Error("toggle should be part of the cache key")
	}
}

func TestExpiry(t *testing.T) {
	Init(20 * time.Millisecond)
	SetRun("u", "", "", model.AuditRun{ID: "x"})
	time.Sleep(40 * time.Millisecond)
	if _, ok := GetRun("u", "", ""); ok {
		t.Error("entry should have expired")
	}
}
