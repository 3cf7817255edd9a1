package thread

// Context is the execution context of one goroutine: which emulated thread
// it is currently running code for. Every goroutine that executes guest
// code owns exactly one Context; it is never shared.
type Context struct {
	current *Thread
}

func NewContext(t *Thread) *Context {
	return &Context{current: t}
}

// Current returns the thread the goroutine is executing for, or nil.
func (c *Context) Current() *Thread {
	return c.current
}

func (c *Context) swap(t *Thread) *Thread {
	prev := c.current
	c.current = t
	return prev
}
