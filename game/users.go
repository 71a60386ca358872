package game

// UsersState holds both seats and the match lifecycle.
type UsersState struct {
	MainUser      UserInformation `json:"mainUser"`
	SecondaryUser UserInformation `json:"secondaryUser"`
	GameState     GameState       `json:"gameState"`
}

// InitialUsersState is the state before the lobby hands over seat ids.
func InitialUsersState() UsersState {
	return UsersState{
		MainUser: UserInformation{
			Name:      "player1",
			Flavour:   "vanilla",
			Direction: DirDown,
			State:     PlayerAlive,
		},
		SecondaryUser: UserInformation{
			Name:      "player2",
			Flavour:   "vanilla",
			Direction: DirDown,
			State:     PlayerAlive,
		},
		GameState: GamePlaying,
	}
}

// UsersAction is the closed set of seat mutations.
type UsersAction interface{ isUsersAction() }

type SetMainUser struct{ User UserInformation }

type SetSecondaryUser struct{ User UserInformation }

// SetUserInformation replaces the main seat when the id matches it and the
// secondary seat otherwise.
type SetUserInformation struct{ User UserInformation }

type SetMatchID struct{ MatchID string }

// PlayerMove is a server-confirmed step. Empty Direction or State keep the
// previous value.
type PlayerMove struct {
	PlayerID    string
	Coordinates Coordinates
	Direction   Direction
	State       PlayerStatus
}

type MoveUser struct{ Move PlayerMove }

// UserPatch is a per-field update: nil fields are left untouched.
type UserPatch struct {
	ID        string        `json:"id"`
	MatchID   *string       `json:"matchId,omitempty"`
	Name      *string       `json:"name,omitempty"`
	Flavour   *string       `json:"flavour,omitempty"`
	Position  *Coordinates  `json:"coordinates,omitempty"`
	Direction *Direction    `json:"direction,omitempty"`
	State     *PlayerStatus `json:"state,omitempty"`
}

// UpdateUser applies a UserPatch to the seat whose id matches.
type UpdateUser struct{ Patch UserPatch }

type SetGameState struct{ State GameState }

func (SetMainUser) isUsersAction()        {}
func (SetSecondaryUser) isUsersAction()   {}
func (SetUserInformation) isUsersAction() {}
func (SetMatchID) isUsersAction()         {}
func (MoveUser) isUsersAction()           {}
func (UpdateUser) isUsersAction()         {}
func (SetGameState) isUsersAction()       {}

// ReduceUsers is the users reducer.
func ReduceUsers(s UsersState, action UsersAction) UsersState {
	switch a := action.(type) {
	case SetMainUser:
		s.MainUser = a.User
	case SetSecondaryUser:
		s.SecondaryUser = a.User
	case SetUserInformation:
		if a.User.ID == s.MainUser.ID {
			s.MainUser = a.User
		} else {
			s.SecondaryUser = a.User
		}
	case SetMatchID:
		s.MainUser.MatchID = a.MatchID
		s.SecondaryUser.MatchID = a.MatchID
	case MoveUser:
		return withSeat(s, a.Move.PlayerID, func(u UserInformation) UserInformation {
			u.Position = a.Move.Coordinates
			if a.Move.Direction != "" {
				u.Direction = a.Move.Direction
			}
			if a.Move.State != "" {
				u.State = a.Move.State
			}
			return u
		})
	case UpdateUser:
		return withSeat(s, a.Patch.ID, a.Patch.apply)
	case SetGameState:
		s.GameState = a.State
	}
	return s
}

// withSeat applies fn to the seat identified by id. Unknown ids leave the
// state unchanged.
func withSeat(s UsersState, id string, fn func(UserInformation) UserInformation) UsersState {
	if id == "" {
		return s
	}
	switch id {
	case s.MainUser.ID:
		s.MainUser = fn(s.MainUser)
	case s.SecondaryUser.ID:
		s.SecondaryUser = fn(s.SecondaryUser)
	}
	return s
}

func (p UserPatch) apply(u UserInformation) UserInformation {
	if p.MatchID != nil {
		u.MatchID = *p.MatchID
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Flavour != nil {
		u.Flavour = *p.Flavour
	}
	if p.Position != nil {
		u.Position = *p.Position
	}
	if p.Direction != nil {
		u.Direction = *p.Direction
	}
	if p.State != nil {
		u.State = *p.State
	}
	return u
}

// CanMove reports whether local input should reach the server.
func (s UsersState) CanMove() bool {
	return s.MainUser.State != PlayerDead && s.GameState == GamePlaying
}
