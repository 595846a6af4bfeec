package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/River-Kt/river-sub000/internal/testutil"
)

func TestStoppableHaltIsSuccess(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f := Stoppable(func(ctx context.Context, emit EmitFunc[int]) error {
		for i := 1; ; i++ {
			if i > 1000 {
				return Halt("reached limit")
			}
			if err := emit(i); err != nil {
				return err
			}
		}
	})

	got, err := ToSlice(ctx, f)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 1000)
	testutil.AssertEqual(t, got[0], 1)
	testutil.AssertEqual(t, got[999], 1000)
}

func TestStoppableFailureIsFailure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	f := Stoppable(func(ctx context.Context, emit EmitFunc[string]) error {
		if err := emit("one"); err != nil {
			return err
		}
		return boom
	})

	var got []string
	err := ForEach(ctx, f, func(v string) error {
		got = append(got, v)
		return nil
	})

	testutil.AssertEqual(t, errors.Is(err, boom), true)
	testutil.AssertSliceEqual(t, got, []string{"one"})
}

func TestStoppableNilReturnCompletes(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f := Stoppable(func(ctx context.Context, emit EmitFunc[int]) error {
		return emit(42)
	})

	got, err := ToSlice(ctx, f)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []int{42})
}

func TestHaltIsNotMistakenForFailure(t *testing.T) {
	err := Halt("done early")
	testutil.AssertEqual(t, IsHalt(err), true)
	testutil.AssertEqual(t, IsHalt(errors.New("done early")), false)
	testutil.AssertEqual(t, IsHalt(nil), false)
}

func TestStoppableEmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	emitErr := make(chan error, 1)
	f := Stoppable(func(ctx context.Context, emit EmitFunc[int]) error {
		if err := emit(1); err != nil {
			return err
		}
		cancel()
		err := emit(2)
		emitErr <- err
		return err
	})

	ch := f(ctx)
	<-ch

	if err := <-emitErr; err == nil {
		t.Fatal("emit after cancel should report the context error")
	}

	// Channel must still close cleanly.
	for range ch {
	}
}
