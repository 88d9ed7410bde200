package workflow

import (
	"context"
	"testing"

	"quaver/internal/queue"
	"quaver/internal/stage"
)

type nopHandler struct{}

func (nopHandler) Prepare(context.Context, *queue.Job) error { return nil }
func (nopHandler) Execute(context.Context, *queue.Job) error { return nil }
func (nopHandler) HealthCheck(context.Context) stage.Health  { return stage.Healthy("nop") }

func TestProgressAfterFullPipeline(t *testing.T) {
	slots := []slot{
		{name: "separating", weight: 30},
		{name: "extracting-pitch", weight: 30},
		{name: "quantizing", weight: 15},
		{name: "encoding-notation", weight: 15},
		{name: "rendering", weight: 10},
	}
	want := []int{30, 60, 75, 90, 100}
	for i, expected := range want {
		if got := progressAfter(slots, i); got != expected {
			t.Errorf("progressAfter(%d) = %d, want %d", i, got, expected)
		}
	}
}

func TestProgressAfterWithoutRendering(t *testing.T) {
	slots := []slot{
		{name: "separating", weight: 30},
		{name: "extracting-pitch", weight: 30},
		{name: "quantizing", weight: 15},
		{name: "encoding-notation", weight: 15},
	}
	want := []int{33, 67, 83, 100}
	for i, expected := range want {
		if got := progressAfter(slots, i); got != expected {
			t.Errorf("progressAfter(%d) = %d, want %d", i, got, expected)
		}
	}
}

func TestProgressAfterEmptySlots(t *testing.T) {
	if got := progressAfter(nil, 0); got != 100 {
		t.Errorf("progressAfter(nil) = %d, want 100", got)
	}
}

func TestActiveSlotsSkipsRenderingForNone(t *testing.T) {
	m := &Manager{slots: []slot{
		{name: "separating", handler: nopHandler{}, weight: 30},
		{name: "rendering", handler: nopHandler{}, weight: 10},
	}}

	params := queue.DefaultParams()
	if got := len(m.activeSlots(params)); got != 1 {
		t.Errorf("active slots with renderer none = %d, want 1", got)
	}

	params.Renderer = queue.RendererMuseScore
	if got := len(m.activeSlots(params)); got != 2 {
		t.Errorf("active slots with renderer musescore = %d, want 2", got)
	}
}

func TestActiveSlotsSkipsNilRenderHandler(t *testing.T) {
	m := &Manager{slots: []slot{
		{name: "separating", handler: nopHandler{}, weight: 30},
		{name: "rendering", handler: nil, weight: 10},
	}}
	params := queue.DefaultParams()
	params.Renderer = queue.RendererVerovio
	if got := len(m.activeSlots(params)); got != 1 {
		t.Errorf("active slots with nil render handler = %d, want 1", got)
	}
}
