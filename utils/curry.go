package utils

// Curry computes a value once and hands back the cached copy on every
// later call. Holds process-wide singletons like the params store root.
type Curry[T any] struct {
	set bool
	val T
}

// Value returns the cached value, running setter on first use.
func (c *Curry[T]) Value(setter func() T) T {
	if c.set {
		return c.val
	}
	c.set = true
	c.val = setter()
	return c.val
}

// Set seeds the cached value directly, bypassing the setter.
func (c *Curry[T]) Set(val T) {
	c.set = true
	c.val = val
}
