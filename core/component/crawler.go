package component

// Visitor is called around every component of a depth-first crawl.
// Before runs on the way down, After runs once all children are done.
type Visitor[T any] interface {
	Before(c *Component, path *Path[T]) error
	After(c *Component, path *Path[T]) error
}

// VisitorFuncs adapts plain functions to a Visitor. Nil functions are skipped.
type VisitorFuncs[T any] struct {
	BeforeFunc func(c *Component, path *Path[T]) error
	AfterFunc  func(c *Component, path *Path[T]) error
}

// Before implements Visitor.
func (f VisitorFuncs[T]) Before(c *Component, path *Path[T]) error {
	if f.BeforeFunc == nil {
		return nil
	}
	return f.BeforeFunc(c, path)
}

// After implements Visitor.
func (f VisitorFuncs[T]) After(c *Component, path *Path[T]) error {
	if f.AfterFunc == nil {
		return nil
	}
	return f.AfterFunc(c, path)
}

// Element is one entry of a Path.
type Element[T any] struct {
	Component *Component
	Value     T
}

// Path is the explicit stack of elements from the root down to the current component.
// Only components on the active root-to-node path have an element.
type Path[T any] struct {
	elems []*Element[T]
}

// Depth returns the number of live elements.
func (p *Path[T]) Depth() int {
	return len(p.elems)
}

// Current returns the value of the component being visited.
func (p *Path[T]) Current() *T {
	return &p.elems[len(p.elems)-1].Value
}

// Parent returns the value of the parent of the component being visited.
func (p *Path[T]) Parent() (*T, bool) {
	if len(p.elems) < 2 {
		return nil, false
	}
	return &p.elems[len(p.elems)-2].Value, true
}

// IsRoot reports whether the current component is the root of the crawl.
func (p *Path[T]) IsRoot() bool {
	return len(p.elems) == 1
}

// Root returns the value held for the root component.
func (p *Path[T]) Root() *T {
	return &p.elems[0].Value
}

func (p *Path[T]) push(c *Component, v T) {
	p.elems = append(p.elems, &Element[T]{Component: c, Value: v})
}

func (p *Path[T]) pop() {
	p.elems[len(p.elems)-1] = nil
	p.elems = p.elems[:len(p.elems)-1]
}

// Crawler walks a Tree depth-first, keeping a Path of per-component values.
type Crawler[T any] struct {
	tree       *Tree
	newElement func(c *Component) T
}

// NewCrawler creates a Crawler. newElement builds the path value for each entered component.
func NewCrawler[T any](tree *Tree, newElement func(c *Component) T) *Crawler[T] {
	return &Crawler[T]{tree: tree, newElement: newElement}
}

// Crawl visits the whole tree. The first error aborts the crawl.
func (cr *Crawler[T]) Crawl(v Visitor[T]) error {
	path := &Path[T]{}
	return cr.visit(cr.tree.Root(), path, v)
}

func (cr *Crawler[T]) visit(c *Component, path *Path[T], v Visitor[T]) error {
	path.push(c, cr.newElement(c))
	defer path.pop()

	if err := v.Before(c, path); err != nil {
		return err
	}
	for _, idx := range c.Children {
		if err := cr.visit(cr.tree.At(idx), path, v); err != nil {
			return err
		}
	}
	return v.After(c, path)
}

// PostOrder visits every component after its children.
func PostOrder[T any](tree *Tree, newElement func(c *Component) T, visit func(c *Component, path *Path[T]) error) error {
	return NewCrawler(tree, newElement).Crawl(VisitorFuncs[T]{AfterFunc: visit})
}

// PreOrder visits every component before its children.
func PreOrder[T any](tree *Tree, newElement func(c *Component) T, visit func(c *Component, path *Path[T]) error) error {
	return NewCrawler(tree, newElement).Crawl(VisitorFuncs[T]{BeforeFunc: visit})
}
