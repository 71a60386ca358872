package game

import "slices"

// PendingUpdate is a board mutation waiting for its animation tick, together
// with the fruit type that was active when its batch arrived.
type PendingUpdate struct {
	Cell      BoardCell `json:"cell"`
	FruitType string    `json:"fruitType"`
}

// BoardState holds the board partitioned by occupant category. Every slice
// is copy-on-write: reducers never modify a slice they received.
type BoardState struct {
	Fruits        []BoardCell     `json:"fruits"`
	Enemies       []BoardCell     `json:"enemies"`
	IceBlocks     []BoardCell     `json:"iceBlocks"`
	EspecialFruit *BoardCell      `json:"especialFruit"`
	Pending       []PendingUpdate `json:"pending"`
}

// BoardAction is the closed set of board mutations.
type BoardAction interface{ isBoardAction() }

// SetBoard replaces the whole board from a flat cell list and drops any
// pending animation.
type SetBoard struct{ Cells []BoardCell }

// SetFruits replaces the fruit sequence.
type SetFruits struct{ Cells []BoardCell }

// DeleteFruit removes the fruit whose item id matches.
type DeleteFruit struct{ ID string }

// DeleteIceBlocks removes ice blocks by item id.
type DeleteIceBlocks struct{ IDs []string }

// AddIceBlocks appends ice blocks whose item id is not yet on the board.
type AddIceBlocks struct{ Cells []BoardCell }

// EnemyMove relocates and reorients one enemy.
type EnemyMove struct {
	EnemyID     string
	Coordinates Coordinates
	Direction   Direction
	EnemyState  string
}

type MoveEnemy struct{ Move EnemyMove }

// SetEspecialFruit sets or clears (nil) the special fruit.
type SetEspecialFruit struct{ Cell *BoardCell }

// EnqueueFrozenCells appends a freeze batch to the pending queue.
type EnqueueFrozenCells struct {
	Cells     []BoardCell
	FruitType string
}

// ApplyNextPending pops the head of the pending queue and applies it.
type ApplyNextPending struct{}

// UpdateIceBlock freezes or thaws a single cell.
type UpdateIceBlock struct {
	Cell      BoardCell
	FruitType string
}

func (SetBoard) isBoardAction()           {}
func (SetFruits) isBoardAction()          {}
func (DeleteFruit) isBoardAction()        {}
func (DeleteIceBlocks) isBoardAction()    {}
func (AddIceBlocks) isBoardAction()       {}
func (MoveEnemy) isBoardAction()          {}
func (SetEspecialFruit) isBoardAction()   {}
func (EnqueueFrozenCells) isBoardAction() {}
func (ApplyNextPending) isBoardAction()   {}
func (UpdateIceBlock) isBoardAction()     {}

// ReduceBoard is the board reducer.
func ReduceBoard(s BoardState, action BoardAction) BoardState {
	switch a := action.(type) {
	case SetBoard:
		return setBoard(a.Cells)
	case SetFruits:
		s.Fruits = cloneCells(a.Cells)
		return s
	case DeleteFruit:
		return deleteFruit(s, a.ID)
	case DeleteIceBlocks:
		return deleteIceBlocks(s, a.IDs)
	case AddIceBlocks:
		return addIceBlocks(s, a.Cells)
	case MoveEnemy:
		return moveEnemy(s, a.Move)
	case SetEspecialFruit:
		if a.Cell == nil {
			s.EspecialFruit = nil
			return s
		}
		c := cloneCell(*a.Cell)
		s.EspecialFruit = &c
		return s
	case EnqueueFrozenCells:
		return enqueue(s, a.Cells, a.FruitType)
	case ApplyNextPending:
		if len(s.Pending) == 0 {
			return s
		}
		head := s.Pending[0]
		s.Pending = slices.Clone(s.Pending[1:])
		return updateIceBlock(s, head.Cell, head.FruitType)
	case UpdateIceBlock:
		return updateIceBlock(s, a.Cell, a.FruitType)
	default:
		return s
	}
}

// setBoard partitions cells in one pass. Player avatars are owned by the
// users store and are skipped.
func setBoard(cells []BoardCell) BoardState {
	var next BoardState
	for _, cell := range cells {
		c := cloneCell(cell)
		switch {
		case c.Character != nil:
			if !isPlayerCharacter(c.Character) {
				next.Enemies = append(next.Enemies, c)
			}
		case c.Frozen || (c.Item != nil && c.Item.Type == ItemIceBlock):
			next.IceBlocks = append(next.IceBlocks, c)
		case isSpecialFruit(c.Item):
			next.EspecialFruit = &c
		case c.Item != nil:
			next.Fruits = append(next.Fruits, c)
		}
	}
	return next
}

func deleteFruit(s BoardState, id string) BoardState {
	i := slices.IndexFunc(s.Fruits, func(c BoardCell) bool {
		return c.Item != nil && c.Item.ID == id
	})
	if i < 0 {
		return s
	}
	s.Fruits = slices.DeleteFunc(slices.Clone(s.Fruits), func(c BoardCell) bool {
		return c.Item != nil && c.Item.ID == id
	})
	return s
}

func deleteIceBlocks(s BoardState, ids []string) BoardState {
	drop := func(c BoardCell) bool {
		return c.Item != nil && slices.Contains(ids, c.Item.ID)
	}
	if !slices.ContainsFunc(s.IceBlocks, drop) {
		return s
	}
	s.IceBlocks = slices.DeleteFunc(slices.Clone(s.IceBlocks), drop)
	return s
}

func addIceBlocks(s BoardState, cells []BoardCell) BoardState {
	seen := make(map[string]struct{}, len(s.IceBlocks)+len(cells))
	for _, c := range s.IceBlocks {
		if c.Item != nil {
			seen[c.Item.ID] = struct{}{}
		}
	}
	var added []BoardCell
	for _, c := range cells {
		if c.Item == nil || c.Item.ID == "" {
			continue
		}
		if _, dup := seen[c.Item.ID]; dup {
			continue
		}
		seen[c.Item.ID] = struct{}{}
		added = append(added, cloneCell(c))
	}
	if len(added) == 0 {
		return s
	}
	s.IceBlocks = slices.Concat(s.IceBlocks, added)
	return s
}

func moveEnemy(s BoardState, m EnemyMove) BoardState {
	i := slices.IndexFunc(s.Enemies, func(c BoardCell) bool {
		return c.Character != nil && c.Character.ID == m.EnemyID
	})
	if i < 0 {
		return s
	}
	enemies := slices.Clone(s.Enemies)
	moved := enemies[i]
	ch := *moved.Character
	if m.Direction != "" {
		ch.Orientation = m.Direction
	}
	if m.EnemyState != "" {
		ch.EnemyState = m.EnemyState
	}
	moved.Coordinates = m.Coordinates
	moved.Character = &ch
	enemies[i] = moved
	s.Enemies = enemies
	return s
}

func enqueue(s BoardState, cells []BoardCell, fruitType string) BoardState {
	if len(cells) == 0 {
		return s
	}
	batch := make([]PendingUpdate, 0, len(cells))
	for _, c := range cells {
		batch = append(batch, PendingUpdate{Cell: cloneCell(c), FruitType: fruitType})
	}
	s.Pending = slices.Concat(s.Pending, batch)
	return s
}

// updateIceBlock freezes or thaws one cell. A frozen fruit leaves Fruits and
// is shown with the batch fruit type; a thawed fruit returns to Fruits.
func updateIceBlock(s BoardState, cell BoardCell, fruitType string) BoardState {
	c := cloneCell(cell)
	key := c.key()
	sameKey := func(b BoardCell) bool { return b.key() == key }

	fruit := isFruit(c.Item) && !isSpecialFruit(c.Item)

	if c.Frozen {
		if slices.ContainsFunc(s.IceBlocks, sameKey) {
			return s
		}
		if fruit {
			s = deleteFruit(s, c.Item.ID)
			if fruitType != "" {
				c.Item = &Item{ID: c.Item.ID, Type: fruitType}
			}
		}
		s.IceBlocks = slices.Concat(s.IceBlocks, []BoardCell{c})
		return s
	}

	if slices.ContainsFunc(s.IceBlocks, sameKey) {
		s.IceBlocks = slices.DeleteFunc(slices.Clone(s.IceBlocks), sameKey)
	}
	if fruit && !slices.ContainsFunc(s.Fruits, sameKey) {
		s.Fruits = slices.Concat(s.Fruits, []BoardCell{c})
	}
	return s
}

func cloneCell(c BoardCell) BoardCell {
	if c.Item != nil {
		it := *c.Item
		c.Item = &it
	}
	if c.Character != nil {
		ch := *c.Character
		c.Character = &ch
	}
	return c
}

func cloneCells(cells []BoardCell) []BoardCell {
	if cells == nil {
		return nil
	}
	out := make([]BoardCell, len(cells))
	for i, c := range cells {
		out[i] = cloneCell(c)
	}
	return out
}
