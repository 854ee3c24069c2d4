package doctree

// WalkStatus tells Walk how to continue after visiting a node.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
)

// Visitor receives enter (Visit) and exit (Depart) callbacks in document
// order. Depart is called even when Visit skipped the children.
type Visitor interface {
	Visit(n *Node) (WalkStatus, error)
	Depart(n *Node) error
}

// Walk traverses the tree rooted at n. The first error returned by the
// visitor aborts the walk.
func Walk(n *Node, v Visitor) error {
	status, err := v.Visit(n)
	if err != nil {
		return err
	}
	if status != WalkSkipChildren {
		for _, c := range n.Children {
			if err := Walk(c, v); err != nil {
				return err
			}
		}
	}
	return v.Depart(n)
}
