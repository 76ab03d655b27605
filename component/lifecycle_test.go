package component

import "testing"

func TestLifecyclePhases(t *testing.T) {
	l := NewLifecycle()
	if l.Phase() != PhaseCreated {
		t.Errorf("Expected created, got %s", l.Phase())
	}

	mounts := 0
	l.OnMount(func() { mounts++ })
	l.Mount()
	l.Mount()
	if mounts != 1 {
		t.Errorf("Expected 1 mount hook call, got %d", mounts)
	}
	if !l.IsMounted() {
		t.Error("Expected mounted")
	}

	l.Destroy()
	if l.Phase() != PhaseDestroyed {
		t.Errorf("Expected destroyed, got %s", l.Phase())
	}
	l.Mount()
	if l.IsMounted() {
		t.Error("Destroyed lifecycle must not remount")
	}
}

func TestLifecycleUpdateOnlyWhileMounted(t *testing.T) {
	l := NewLifecycle()
	updates := 0
	l.OnUpdate(func() { updates++ })

	l.Update()
	l.Mount()
	l.Update()
	l.Update()
	l.Destroy()
	l.Update()

	if updates != 2 {
		t.Errorf("Expected 2 updates, got %d", updates)
	}
}

func TestLifecycleCleanupOrder(t *testing.T) {
	l := NewLifecycle()
	var order []string
	l.OnCleanup(func() { order = append(order, "release scroll lock") })
	l.OnCleanup(func() { order = append(order, "cancel close task") })
	l.OnDestroy(func() { order = append(order, "destroyed") })
	l.Mount()

	l.Destroy()
	l.Destroy()

	want := []string{"cancel close task", "release scroll lock", "destroyed"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, order)
			break
		}
	}
}

func TestLifecycleCleanupAfterDestroyRunsImmediately(t *testing.T) {
	l := NewLifecycle()
	l.Destroy()

	ran := false
	l.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("Expected late cleanup to run immediately")
	}
}

type node struct{ lc *Lifecycle }

func (n node) Lifecycle() *Lifecycle { return n.lc }

func TestMountAndDestroyTree(t *testing.T) {
	var order []string
	parent := node{NewLifecycle()}
	child := node{NewLifecycle()}
	parent.lc.OnMount(func() { order = append(order, "parent mount") })
	child.lc.OnMount(func() { order = append(order, "child mount") })
	parent.lc.OnDestroy(func() { order = append(order, "parent destroy") })
	child.lc.OnDestroy(func() { order = append(order, "child destroy") })

	Mount(parent, child)
	Destroy(parent, child)

	want := []string{"child mount", "parent mount", "parent destroy", "child destroy"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}
