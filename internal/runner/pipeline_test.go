package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibots/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, task *model.Task) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, task *model.Task) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, task)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestTask() *model.Task {
	return model.NewTask("run", "test", &model.Page{PageID: 1, Title: "File:A.jpg", Namespace: model.NamespaceFile})
}

// TestPipelineExecute tests step ordering and early exit.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.Task) error {
				order = append(order, name)
				return nil
			}}
		}

		p := NewPipeline(WithPipelineLogger(discardLogger()))
		p.AddSteps(record("a"), record("b"), record("c"))

		if err := p.Execute(context.Background(), newTestTask()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, p.StepNames()); diff != "" {
			t.Errorf("step names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stops at the first error and names the step", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.Task) error { return boom }}
		second := &mockStep{name: "second"}

		p := NewPipeline(WithPipelineLogger(discardLogger()))
		p.AddSteps(first, second)

		err := p.Execute(context.Background(), newTestTask())
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if err.Error() != "first: boom" {
			t.Errorf("unexpected message %q", err.Error())
		}
		if second.callCount != 0 {
			t.Error("second step should not run")
		}
	})

	t.Run("checks cancellation before each step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.Task) error {
			cancel()
			return nil
		}}
		second := &mockStep{name: "second"}

		p := NewPipeline(WithPipelineLogger(discardLogger()))
		p.AddSteps(first, second)

		err := p.Execute(ctx, newTestTask())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not run after cancellation")
		}
	})
}

// TestSkipError tests skip error matching and reasons.
func TestSkipError(t *testing.T) {
	t.Parallel()

	err := Skip("no %s template", "FlickreviewR")
	if !errors.Is(err, ErrSkip) {
		t.Error("expected errors.Is(err, ErrSkip)")
	}
	if got := skipReason(err); got != "no FlickreviewR template" {
		t.Errorf("reason = %q", got)
	}

	cause := errors.New("photo is private")
	wrapped := SkipCause("flickr", cause)
	if !errors.Is(wrapped, cause) || !errors.Is(wrapped, ErrSkip) {
		t.Error("SkipCause must match both ErrSkip and its cause")
	}
	if got := skipReason(wrapped); got != "flickr: photo is private" {
		t.Errorf("reason = %q", got)
	}

	if Transient(nil) != nil {
		t.Error("Transient(nil) must be nil")
	}
	if err := Transient(cause); !errors.Is(err, ErrTransient) || !errors.Is(err, cause) {
		t.Errorf("Transient lost a match: %v", err)
	}
}
