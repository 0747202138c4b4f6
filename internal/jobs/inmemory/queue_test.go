package inmemory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus, timeout time.Duration) *jobs.ExtractReceiptJob {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %s within %s", jobID, want, timeout)
	return nil
}

func TestQueuePublishAndProcess(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	handled := make(chan string, 1)
	err := queue.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		extract, ok := job.(*jobs.ExtractReceiptJob)
		if !ok {
			return fmt.Errorf("unexpected job type %T", job)
		}
		handled <- extract.GCSURI
		return nil
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ExtractReceiptJob{GCSURI: "gs://receipts/scan-001.jpg"}
	if err := queue.PublishExtractReceipt(context.Background(), job); err != nil {
		t.Fatalf("PublishExtractReceipt() error = %v", err)
	}

	if job.JobID == "" {
		t.Error("expected job ID to be assigned on publish")
	}
	if job.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", job.MaxRetries)
	}

	select {
	case uri := <-handled:
		if uri != "gs://receipts/scan-001.jpg" {
			t.Errorf("handler received GCS URI %q", uri)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	stored := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted, 2*time.Second)
	if stored.Error != "" {
		t.Errorf("completed job carries error %q", stored.Error)
	}
	if stored.CompletedAt == nil {
		t.Error("completed job missing CompletedAt")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var attempts atomic.Int32
	err := queue.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) == 1 {
			return fmt.Errorf("transient extraction failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ExtractReceiptJob{GCSURI: "gs://receipts/scan-002.jpg"}
	if err := queue.PublishExtractReceipt(context.Background(), job); err != nil {
		t.Fatalf("PublishExtractReceipt() error = %v", err)
	}

	stored := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted, 5*time.Second)
	if got := attempts.Load(); got != 2 {
		t.Errorf("handler attempts = %d, want 2", got)
	}
	if stored.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", stored.RetryCount)
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	err := queue.PublishExtractReceipt(context.Background(), &jobs.ExtractReceiptJob{GCSURI: "gs://receipts/late.jpg"})
	if err == nil {
		t.Fatal("expected error publishing to closed queue")
	}
}

func TestStoreListJobsFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := []*jobs.ExtractReceiptJob{
		{JobID: "a", GCSURI: "gs://receipts/a.jpg", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", GCSURI: "gs://receipts/b.jpg", Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", GCSURI: "gs://receipts/a.jpg", Status: jobs.JobStatusFailed, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", j.JobID, err)
		}
	}

	byURI, err := store.ListJobs(ctx, jobs.JobFilter{GCSURI: "gs://receipts/a.jpg"})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(byURI) != 2 {
		t.Fatalf("ListJobs by URI returned %d jobs, want 2", len(byURI))
	}
	if byURI[0].JobID != "c" || byURI[1].JobID != "a" {
		t.Errorf("expected newest-first order, got [%s %s]", byURI[0].JobID, byURI[1].JobID)
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "b" {
		t.Errorf("ListJobs by status = %+v, want single job b", byStatus)
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(limited) != 1 || limited[0].JobID != "b" {
		t.Errorf("ListJobs with limit/offset = %+v, want single job b", limited)
	}
}
