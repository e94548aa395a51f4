package jobs

import (
	"errors"
	"strings"
	"testing"
)

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "Descriptor", spec: "@every 10m"},
		{name: "Hourly", spec: "@hourly"},
		{name: "Six fields", spec: "0 */5 * * * *"},
		{name: "Garbage", spec: "whenever", wantErr: true},
		{name: "Empty", spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler()
			err := s.Add("job", tt.spec, func() error { return nil })
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "job") {
				t.Errorf("error %q does not name the job", err)
			}
			wantJobs := 1
			if tt.wantErr {
				wantJobs = 0
			}
			if got := len(s.Jobs()); got != wantJobs {
				t.Errorf("len(Jobs()) = %d, want %d", got, wantJobs)
			}
		})
	}
}

func TestNamedJob_Run(t *testing.T) {
	calls := 0
	job := &namedJob{name: "count", fn: func() error {
		calls++
		return errors.New("boom")
	}}

	job.Run()
	job.Run()

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestNamedJob_SkipsOverlappingRun(t *testing.T) {
	calls := 0
	job := &namedJob{name: "slow"}
	job.fn = func() error {
		calls++
		job.Run()
		return nil
	}

	job.Run()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
