package cache

import "testing"

func TestLRUGetPut(t *testing.T) {
	c := New[string, int](3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache returned ok")
	}

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
}

func TestLRUUpdateExisting(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("a", 10)

	if c.Len() != 1 {
		t.Errorf("Len() = %d; want 1", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d; want 10", v)
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry a survived eviction")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("entry b was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry c was evicted")
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry a was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b survived eviction")
	}
}

func TestLRUUnbounded(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	if c.Len() != 100 {
		t.Errorf("Len() = %d; want 100", c.Len())
	}
}

func TestLRURemove(t *testing.T) {
	c := New[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false; want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true; want false")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d; want 1", c.Len())
	}
}

func TestLRUClearInvokesOnEvict(t *testing.T) {
	c := New[string, int](4)
	evicted := map[string]int{}
	c.OnEvict(func(k string, v int) { evicted[k] = v })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", c.Len())
	}
	if len(evicted) != 2 || evicted["a"] != 1 || evicted["b"] != 2 {
		t.Errorf("evicted = %v; want both entries", evicted)
	}
}

func TestLRUOnEvictCapacity(t *testing.T) {
	c := New[string, int](1)
	var gotK string
	var gotV int
	c.OnEvict(func(k string, v int) { gotK, gotV = k, v })

	c.Put("a", 1)
	c.Put("b", 2)

	if gotK != "a" || gotV != 1 {
		t.Errorf("evicted (%q, %d); want (a, 1)", gotK, gotV)
	}
}
