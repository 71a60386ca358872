package game

import "sync"

// Reducer computes the next state from the previous one. It must not mutate
// its input.
type Reducer[S, A any] func(S, A) S

// Store is a state container: the only way to change its state is Dispatch.
// Values returned by State share memory with the store and must be treated as
// read-only.
type Store[S, A any] struct {
	mu     sync.RWMutex
	state  S
	reduce Reducer[S, A]

	subMu  sync.Mutex
	subs   map[int]func(S)
	nextID int
}

// NewStore creates a container holding initial.
func NewStore[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{
		state:  initial,
		reduce: reduce,
		subs:   make(map[int]func(S)),
	}
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action and notifies subscribers with the new state.
func (s *Store[S, A]) Dispatch(action A) {
	s.mu.Lock()
	next := s.reduce(s.state, action)
	s.state = next
	s.mu.Unlock()

	s.subMu.Lock()
	listeners := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Subscribe registers fn to be called after every dispatch. The returned
// function removes the subscription.
func (s *Store[S, A]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

type (
	BoardStore    = Store[BoardState, BoardAction]
	UsersStore    = Store[UsersState, UsersAction]
	HeaderStore   = Store[HeaderState, HeaderAction]
	FruitBarStore = Store[FruitBarState, FruitBarAction]
)

func NewBoardStore() *BoardStore { return NewStore(BoardState{}, ReduceBoard) }

func NewUsersStore() *UsersStore { return NewStore(InitialUsersState(), ReduceUsers) }

func NewHeaderStore() *HeaderStore { return NewStore(InitialHeaderState(), ReduceHeader) }

func NewFruitBarStore() *FruitBarStore { return NewStore(FruitBarState{}, ReduceFruitBar) }

// Stores groups the containers of one match. They are created together when
// the match starts and dropped when it ends.
type Stores struct {
	Board    *BoardStore
	Users    *UsersStore
	Header   *HeaderStore
	FruitBar *FruitBarStore
}

func NewStores() Stores {
	return Stores{
		Board:    NewBoardStore(),
		Users:    NewUsersStore(),
		Header:   NewHeaderStore(),
		FruitBar: NewFruitBarStore(),
	}
}
