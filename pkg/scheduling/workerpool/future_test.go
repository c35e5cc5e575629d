package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/prioflow/internal/testutil"
)

func TestFutureResolvesOnce(t *testing.T) {
	f := newFuture[string]()
	testutil.AssertEqual(t, f.Ready(), false)

	f.resolve("first", nil)
	f.resolve("second", nil)
	f.fail(ErrPoolStopped)

	testutil.AssertEqual(t, f.Ready(), true)
	testutil.WaitClosed(t, f.Done(), time.Second)

	v, err := f.Get()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "first")
}

func TestFutureFail(t *testing.T) {
	f := newFuture[int]()
	f.fail(ErrTaskExpired)
	f.Wait()

	v, err := f.Get()
	testutil.AssertEqual(t, v, 0)
	if !errors.Is(err, ErrTaskExpired) {
		t.Fatalf("expected ErrTaskExpired, got %v", err)
	}
}

func TestFutureGetContext(t *testing.T) {
	f := newFuture[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.GetContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	f.resolve(3, nil)
	v, err := f.GetContext(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 3)
}
