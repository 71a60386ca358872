package game

// HeaderState is the scoreboard. Score and clock come from the server, the
// toggles are local.
type HeaderState struct {
	Score          int  `json:"score"`
	Minutes        int  `json:"minutes"`
	Seconds        int  `json:"seconds"`
	MusicOn        bool `json:"musicOn"`
	SoundEffectsOn bool `json:"soundEffectsOn"`
	IsRunning      bool `json:"isRunning"`
}

func InitialHeaderState() HeaderState {
	return HeaderState{MusicOn: true, SoundEffectsOn: true, IsRunning: true}
}

type HeaderAction interface{ isHeaderAction() }

type (
	IncrementScore  struct{}
	SetScore        struct{ Score int }
	SetMinutes      struct{ Minutes int }
	SetSeconds      struct{ Seconds int }
	SetTime         struct{ Minutes, Seconds int }
	SetMusic        struct{ On bool }
	SetSoundEffects struct{ On bool }
	SetIsRunning    struct{ Running bool }
)

func (IncrementScore) isHeaderAction()  {}
func (SetScore) isHeaderAction()        {}
func (SetMinutes) isHeaderAction()      {}
func (SetSeconds) isHeaderAction()      {}
func (SetTime) isHeaderAction()         {}
func (SetMusic) isHeaderAction()        {}
func (SetSoundEffects) isHeaderAction() {}
func (SetIsRunning) isHeaderAction()    {}

func ReduceHeader(s HeaderState, action HeaderAction) HeaderState {
	switch a := action.(type) {
	case IncrementScore:
		s.Score++
	case SetScore:
		s.Score = a.Score
	case SetMinutes:
		s.Minutes = a.Minutes
	case SetSeconds:
		s.Seconds = a.Seconds
	case SetTime:
		s.Minutes, s.Seconds = a.Minutes, a.Seconds
	case SetMusic:
		s.MusicOn = a.On
	case SetSoundEffects:
		s.SoundEffectsOn = a.On
	case SetIsRunning:
		s.IsRunning = a.Running
	}
	return s
}
