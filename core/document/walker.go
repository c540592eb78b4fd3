package document

import (
	"context"
	"fmt"
)

// Visitor is the capability applied to every node of a hierarchy walk. It is
// called on a node before any of the node's children and returns the context
// threaded down to those children. Returning an error aborts the walk.
type Visitor[C any] interface {
	Visit(ctx context.Context, node *Document, collection string, inherited C) (C, error)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc[C any] func(ctx context.Context, node *Document, collection string, inherited C) (C, error)

func (f VisitorFunc[C]) Visit(ctx context.Context, node *Document, collection string, inherited C) (C, error) {
	return f(ctx, node, collection, inherited)
}

// Walk recurses a document's declared embedded fields pre-order, applying the
// visitor to the root first and then to every embedded child, passing each
// child the context its parent's visit produced. Collection-valued fields are
// walked in original sequence order; a singular field only when present.
// Recursion depth is bounded by the Hierarchy schema. Embedded entries that
// are bare id references have no subtree and are skipped; the visitor is
// expected to have resolved any it wants walked before returning.
func Walk[C any](ctx context.Context, node *Document, collection string, inherited C, visitor Visitor[C]) error {
	if node == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	next, err := visitor.Visit(ctx, node, collection, inherited)
	if err != nil {
		return fmt.Errorf("visiting %s document %q: %w", collection, node.ID, err)
	}

	for _, field := range EmbeddedFields(collection) {
		// Read children after the visit: the visitor may have resolved
		// references in place.
		for _, child := range node.Embedded[field.Name] {
			if child.Doc == nil {
				continue
			}
			if err := Walk(ctx, child.Doc, field.Name, next, visitor); err != nil {
				return err
			}
		}
	}
	return nil
}
