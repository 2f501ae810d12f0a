package loop

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPending_MicrotasksRunBeforeNextMacrotask(t *testing.T) {
	l := New()
	var order []string

	l.Post(func() {
		order = append(order, "A")
		l.Microtask(func() {
			order = append(order, "A.micro")
			l.Microtask(func() { order = append(order, "A.micro.micro") })
		})
	})
	l.Post(func() { order = append(order, "B") })

	if n := l.RunPending(); n != 2 {
		t.Errorf("RunPending() = %d, want 2", n)
	}
	want := "A,A.micro,A.micro.micro,B"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestGo_CompletionIsPostedBack(t *testing.T) {
	l := New()
	ctx := context.Background()
	boom := stderrors.New("boom")

	var got error
	var ran atomic.Bool
	l.Go(ctx, func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		ran.Store(true)
		return boom
	}, func(err error) {
		got = err
	})

	if err := l.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !ran.Load() {
		t.Error("async function did not run")
	}
	if got != boom {
		t.Errorf("done got %v, want %v", got, boom)
	}
}

func TestGo_PanicBecomesError(t *testing.T) {
	l := New()
	var got error
	l.Go(context.Background(), func(context.Context) error {
		panic("kaboom")
	}, func(err error) { got = err })

	if err := l.Settle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got == nil || !strings.Contains(got.Error(), "E023") || !strings.Contains(got.Error(), "kaboom") {
		t.Errorf("got %v", got)
	}
}

func TestSettle_ContextDeadline(t *testing.T) {
	l := New()
	release := make(chan struct{})
	l.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Settle(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Settle() error = %v, want deadline exceeded", err)
	}

	close(release)
	if err := l.Settle(context.Background()); err != nil {
		t.Errorf("Settle() after release error = %v", err)
	}
}

func TestGo_ContextIsPassedThrough(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	var got error
	l.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, func(err error) { got = err })

	cancel()
	if err := l.Settle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !stderrors.Is(got, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", got)
	}
}

func TestStop_RejectsNewWork(t *testing.T) {
	l := New()
	ran := false
	l.Post(func() { ran = true })
	l.Stop()

	if err := l.Post(func() {}); !stderrors.Is(err, ErrLoopTerminated) {
		t.Errorf("Post() after Stop error = %v", err)
	}
	l.RunPending()
	if ran {
		t.Error("queued task ran after Stop")
	}
	if !l.Stopped() {
		t.Error("Stopped() = false")
	}
	if err := l.Run(context.Background()); !stderrors.Is(err, ErrLoopTerminated) {
		t.Errorf("Run() after Stop error = %v", err)
	}
}

func TestRun_DoAndSettle(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	counter := 0
	if err := l.Do(ctx, func() { counter++ }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := l.Run(ctx); !stderrors.Is(err, ErrLoopAlreadyRunning) {
		t.Errorf("second Run() error = %v", err)
	}

	l.Go(ctx, func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, func(error) { counter++ })
	if err := l.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if err := l.Do(ctx, func() {}); err != nil {
		t.Fatal(err)
	}
	if counter != 2 {
		t.Errorf("counter = %d, want 2", counter)
	}

	l.Stop()
	if err := <-runErr; err != nil {
		t.Errorf("Run() returned %v after Stop", err)
	}
}

func TestExecute_PanicDoesNotStopLoop(t *testing.T) {
	l := New()
	var recovered any
	l.OnPanic = func(r any, _ []byte) { recovered = r }

	after := false
	l.Post(func() { panic("task failed") })
	l.Post(func() { after = true })
	l.RunPending()

	if recovered != "task failed" {
		t.Errorf("recovered = %v", recovered)
	}
	if !after {
		t.Error("task after the panic did not run")
	}
}

func TestAfterFunc(t *testing.T) {
	l := New()
	fired := 0
	l.AfterFunc(5*time.Millisecond, func() { fired++ })
	cancel := l.AfterFunc(time.Hour, func() { fired += 100 })
	cancel()
	cancel()

	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	if err := l.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}
