package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rarespot/rarespot/internal/domain/model"
)

func sub(id string) model.Submission {
	return model.Submission{
		SubmissionID: id,
		Payload:      `{"make":"Ford","model":"Focus"}`,
		TS:           time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	if !q.Enqueue(ctx, sub("spot1")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	subChan := q.Dequeue(ctx)
	s := <-subChan
	if s.SubmissionID != "spot1" {
		t.Errorf("expected spot1, got %v", s.SubmissionID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithBufferSize(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, sub("spot1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sub("spot2")) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, sub("spot3")) {
		t.Error("expected enqueue to fail when queue is full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected new queue to be open")
	}

	if !q.Enqueue(ctx, sub("spot1")) {
		t.Error("expected enqueue to succeed")
	}

	if err := q.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}

	// Enqueue after close must fail
	if q.Enqueue(ctx, sub("spot2")) {
		t.Error("expected enqueue to fail on closed queue")
	}

	// Closing twice is a no-op
	if err := q.Close(); err != nil {
		t.Errorf("unexpected error on double close: %v", err)
	}

	// Drain the remaining submission, then the channel closes
	subChan := q.Dequeue(ctx)
	s, ok := <-subChan
	if !ok || s.SubmissionID != "spot1" {
		t.Errorf("expected spot1 before close, got %v (ok=%v)", s.SubmissionID, ok)
	}

	select {
	case _, ok := <-subChan:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for dequeue channel to close")
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !q.Enqueue(ctx, sub(fmt.Sprintf("spot%d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}

	subChan := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		s := <-subChan
		want := fmt.Sprintf("spot%d", i)
		if s.SubmissionID != want {
			t.Errorf("expected %s, got %s", want, s.SubmissionID)
		}
	}
}
