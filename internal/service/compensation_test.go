package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUndoStack_RunsInReverseOrder(t *testing.T) {
	u := newUndoStack(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var order []string
	u.push("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	u.push("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	u.run(context.Background())

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestUndoStack_FailureDoesNotStopRemainingSteps(t *testing.T) {
	u := newUndoStack(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))

	var ran bool
	u.push("first", func(context.Context) error {
		ran = true
		return nil
	})
	u.push("second", func(context.Context) error {
		return errors.New("boom")
	})

	u.run(context.Background())

	assert.True(t, ran)
}

func TestUndoStack_RunIsIdempotent(t *testing.T) {
	u := newUndoStack(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	count := 0
	u.push("step", func(context.Context) error {
		count++
		return nil
	})

	u.run(context.Background())
	u.run(context.Background())

	assert.Equal(t, 1, count)
}

func TestUndoStack_DiscardDropsSteps(t *testing.T) {
	u := newUndoStack(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	count := 0
	u.push("step", func(context.Context) error {
		count++
		return nil
	})

	u.discard()
	u.run(context.Background())

	assert.Equal(t, 0, count)
}
