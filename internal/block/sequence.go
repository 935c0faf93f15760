package block

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateBlockID = errors.New("duplicate block id")
	ErrBlockNotFound    = errors.New("block not found")
)

// Find returns the index of the block with id, or -1.
func Find(blocks []Block, id string) int {
	for i, b := range blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Insert returns a new sequence with b placed at index. Out-of-range indexes are clamped,
// so a negative index prepends and an index past the end appends.
func Insert(blocks []Block, index int, b Block) []Block {
	if index < 0 {
		index = 0
	}
	if index > len(blocks) {
		index = len(blocks)
	}
	out := make([]Block, 0, len(blocks)+1)
	out = append(out, blocks[:index]...)
	out = append(out, b)
	out = append(out, blocks[index:]...)
	return out
}

// Move returns a new sequence with the block id relocated to position to,
// measured in the sequence after removal.
func Move(blocks []Block, id string, to int) ([]Block, error) {
	from := Find(blocks, id)
	if from < 0 {
		return nil, ErrBlockNotFound
	}
	moved := blocks[from]
	rest, _ := Remove(blocks, id)
	return Insert(rest, to, moved), nil
}

// Remove returns a new sequence without the block id.
func Remove(blocks []Block, id string) ([]Block, error) {
	idx := Find(blocks, id)
	if idx < 0 {
		return nil, ErrBlockNotFound
	}
	out := make([]Block, 0, len(blocks)-1)
	out = append(out, blocks[:idx]...)
	out = append(out, blocks[idx+1:]...)
	return out, nil
}

// EnsureIDs returns a copy of blocks where blank ids are replaced by values from gen.
func EnsureIDs(blocks []Block, gen func() string) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			b.ID = gen()
		}
		if b.Content == nil {
			b.Content = Content{}
		}
		out[i] = b
	}
	return out
}

// ValidateIDs reports the first id that appears more than once.
func ValidateIDs(blocks []Block) error {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateBlockID, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}
