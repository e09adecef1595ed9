package order

import (
	"sort"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/task"
)

// Block is one category's tasks in display order.
type Block struct {
	Category category.Category `json:"-"`
	Name     category.Name     `json:"category"`
	Tasks    []task.Task       `json:"tasks"`
}

// Board is the read projection of a collection: every category in display
// order, each with its tasks.
type Board struct {
	Blocks    []Block `json:"blocks"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
}

// Group buckets tasks by category. Sequence collections keep their relative
// positions; keyed collections sort by order key, ties broken by position in
// the collection. Tasks whose category is not in the set are dropped.
func (e Engine) Group(tasks []task.Task) Board {
	cats := e.Categories.All()
	board := Board{Blocks: make([]Block, len(cats))}
	for i, c := range cats {
		board.Blocks[i] = Block{Category: c, Name: c.Name, Tasks: []task.Task{}}
	}
	for _, t := range tasks {
		i := e.Categories.Index(t.Category)
		if i < 0 {
			continue
		}
		board.Blocks[i].Tasks = append(board.Blocks[i].Tasks, t)
		board.Total++
		if t.Completed {
			board.Completed++
		}
	}
	if e.Policy == Keyed {
		for i := range board.Blocks {
			ts := board.Blocks[i].Tasks
			sort.SliceStable(ts, func(a, b int) bool { return ts[a].Order < ts[b].Order })
		}
	}
	return board
}

// Flatten returns the board's tasks block by block.
func (b Board) Flatten() []task.Task {
	out := make([]task.Task, 0, b.Total)
	for _, blk := range b.Blocks {
		out = append(out, blk.Tasks...)
	}
	return out
}

// Block returns the block for name.
func (b Board) Block(name category.Name) (Block, bool) {
	for _, blk := range b.Blocks {
		if blk.Name == name {
			return blk, true
		}
	}
	return Block{}, false
}

// Progress returns the completed fraction in [0,1].
func (b Board) Progress() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Completed) / float64(b.Total)
}
