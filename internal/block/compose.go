package block

// Slot is one rendered position of a composed page: a block, or the collection's product listing.
type Slot struct {
	Block   *Block
	Listing bool
}

// HasCollectionGrid reports whether the sequence carries an explicit collection-grid block.
func HasCollectionGrid(blocks []Block) bool {
	for _, b := range blocks {
		if b.Type == KindCollectionGrid {
			return true
		}
	}
	return false
}

// ComposeCollection interleaves a collection page's blocks with its product listing.
//
// An explicit collection-grid block anywhere suppresses the listing and every block keeps its
// position. Otherwise the first product-grid marker is replaced by the listing; without a marker the
// listing comes first and the whole sequence follows it. Pages authored before collection-grid
// existed depend on the marker form.
func ComposeCollection(blocks []Block) []Slot {
	if HasCollectionGrid(blocks) {
		return ComposePage(blocks)
	}

	marker := -1
	for i, b := range blocks {
		if b.Type.IsMarker() {
			marker = i
			break
		}
	}

	slots := make([]Slot, 0, len(blocks)+1)
	if marker < 0 {
		slots = append(slots, Slot{Listing: true})
		return append(slots, ComposePage(blocks)...)
	}

	slots = append(slots, ComposePage(blocks[:marker])...)
	slots = append(slots, Slot{Listing: true})
	return append(slots, ComposePage(blocks[marker+1:])...)
}

// ComposePage keeps the sequence order and drops markers.
func ComposePage(blocks []Block) []Slot {
	slots := make([]Slot, 0, len(blocks))
	for i := range blocks {
		if blocks[i].Type.IsMarker() {
			continue
		}
		slots = append(slots, Slot{Block: &blocks[i]})
	}
	return slots
}
