package game

import "slices"

// FruitBarState is the fruit rotation of the level and the active flavour.
type FruitBarState struct {
	Fruits      []string `json:"fruits"`
	ActualFruit string   `json:"actualFruit"`
}

type FruitBarAction interface{ isFruitBarAction() }

type (
	SetFruitBar    struct{ Fruits []string }
	SetActualFruit struct{ Fruit string }
)

func (SetFruitBar) isFruitBarAction()    {}
func (SetActualFruit) isFruitBarAction() {}

func ReduceFruitBar(s FruitBarState, action FruitBarAction) FruitBarState {
	switch a := action.(type) {
	case SetFruitBar:
		s.Fruits = slices.Clone(a.Fruits)
	case SetActualFruit:
		s.ActualFruit = a.Fruit
	}
	return s
}
