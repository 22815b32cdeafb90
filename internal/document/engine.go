package document

// Location identifies a block found by Find together with the slot that
// owns it, so the same match can later be merged into or removed without
// a second traversal. Exactly one of three owners applies: the document
// root, a container's children list, or a grid cell.
type Location struct {
	doc    *Document
	parent Block // container owning the children list, nil otherwise
	cell   Cell  // grid cell owning the block, nil otherwise
	index  int   // position within the owning list, -1 for cells
	block  Block
}

// Block returns the matched block.
func (loc *Location) Block() Block {
	return loc.block
}

// Update shallow-merges fields into the matched block.
func (loc *Location) Update(fields map[string]any) {
	for key, val := range fields {
		loc.block[key] = val
	}
}

// Remove detaches the matched block from its owner. Cell-held blocks are
// nulled out rather than shrinking the cell list, matching how the
// editor models grids.
func (loc *Location) Remove() {
	switch {
	case loc.cell != nil:
		loc.cell["block"] = nil
	case loc.parent != nil:
		children, _ := loc.parent.Children()
		loc.parent["children"] = append(children[:loc.index:loc.index], children[loc.index+1:]...)
	default:
		blocks := loc.doc.Blocks
		loc.doc.Blocks = append(blocks[:loc.index:loc.index], blocks[loc.index+1:]...)
	}
}

// Find walks the tree in pre-order (root blocks, then container
// children, then grid cell blocks) and returns the first block whose id
// matches. The traversal is an explicit stack rather than recursion, so
// arbitrarily deep documents cannot blow the call stack.
func Find(doc *Document, blockID string) (*Location, bool) {
	stack := make([]*Location, 0, len(doc.Blocks))
	for i := len(doc.Blocks) - 1; i >= 0; i-- {
		stack = append(stack, &Location{doc: doc, index: i, block: doc.Blocks[i]})
	}

	for len(stack) > 0 {
		loc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if loc.block.ID() == blockID {
			return loc, true
		}

		switch loc.block.Type() {
		case TypeContainer:
			children, ok := loc.block.Children()
			if !ok {
				continue
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, &Location{doc: doc, parent: loc.block, index: i, block: children[i]})
			}
		case TypeGrid:
			cells, ok := loc.block.Cells()
			if !ok {
				continue
			}
			for i := len(cells) - 1; i >= 0; i-- {
				if b, ok := cells[i].Block(); ok {
					stack = append(stack, &Location{doc: doc, cell: cells[i], index: -1, block: b})
				}
			}
		}
	}
	return nil, false
}

// Append adds a block to the end of the root sequence.
func Append(doc *Document, b Block) {
	doc.Blocks = append(doc.Blocks, b)
}

// Reorder moves the root block at from to position to. Out-of-range
// indices leave the document untouched and report false.
func Reorder(doc *Document, from, to int) bool {
	n := len(doc.Blocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	blocks := doc.Blocks
	moved := blocks[from]
	blocks = append(blocks[:from], blocks[from+1:]...)
	blocks = append(blocks, nil)
	copy(blocks[to+1:], blocks[to:])
	blocks[to] = moved
	doc.Blocks = blocks
	return true
}

// MergeTheme shallow-merges fields into the theme map, creating it if
// absent.
func MergeTheme(doc *Document, fields map[string]any) {
	doc.Theme = mergeInto(doc.Theme, fields)
}

// MergeHeader shallow-merges fields into the header map.
func MergeHeader(doc *Document, fields map[string]any) {
	doc.Header = mergeInto(doc.Header, fields)
}

// MergeFooter shallow-merges fields into the footer map.
func MergeFooter(doc *Document, fields map[string]any) {
	doc.Footer = mergeInto(doc.Footer, fields)
}

func mergeInto(dst, fields map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(fields))
	}
	for key, val := range fields {
		dst[key] = val
	}
	return dst
}
