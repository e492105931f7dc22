package model_test

import (
	"testing"

	"github.com/ezoic/binngo/core/model"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := model.NewStateManager()

	if s.IsFitted() {
		t.Error("new StateManager must not be fitted")
	}

	s.SetFitted()
	if !s.IsFitted() {
		t.Error("expected fitted after SetFitted")
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("expected not fitted after Reset")
	}
}
