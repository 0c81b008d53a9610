package main

// Team identifies one of the two fixed sides of a room.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Status is the phase a room is currently in. It is a closed set; the
// state machine only ever moves between these values.
type Status string

const (
	StatusLobby       Status = "LOBBY"
	StatusNomination  Status = "NOMINATION"
	StatusAuction     Status = "AUCTION"
	StatusPerformance Status = "PERFORMANCE"
	StatusValidation  Status = "VALIDATION"
	StatusGameOver    Status = "GAME_OVER"
	StatusClosed      Status = "CLOSED"
)

// inRound reports whether a disconnect during this status aborts the round.
func (s Status) inRound() bool {
	switch s {
	case StatusLobby, StatusGameOver, StatusClosed:
		return false
	}
	return true
}

// Player holds one joined player. Avatar is an opaque blob the clients
// use to render the player; the server never inspects it.
type Player struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Avatar    map[string]any `json:"avatar"`
	Team      Team           `json:"team"`
	Connected bool           `json:"connected"`
}

// Settings are host-adjustable room options. The timer is advisory data
// for the clients; the server does not enforce it.
type Settings struct {
	Timer     int `json:"timer"`
	MaxRounds int `json:"max_rounds"`
}

// Auction tracks the bidding phase. HoldingTeam is empty until the first
// bid lands; Turn names the team expected to bid next.
type Auction struct {
	CurrentBid  int  `json:"current_bid"`
	HoldingTeam Team `json:"holding_team"`
	Turn        Team `json:"turn"`
}

type Answer struct {
	Word  string `json:"word"`
	Valid bool   `json:"valid"`
}

// RoundResult records the active team's performance attempt.
type RoundResult struct {
	ActiveTeam  Team     `json:"active_team"`
	Target      int      `json:"target"`
	Answers     []Answer `json:"answers"`
	LiveBubbles []string `json:"live_bubbles"`
}

// GameState is the full authoritative state of one room, serialized
// as-is to every client after each mutation. Player values are shared
// between Players and the Teams lists, so a team switch only has to
// update one struct.
type GameState struct {
	RoomCode     string             `json:"room_code"`
	HostID       string             `json:"host_id"`
	Status       Status             `json:"status"`
	Settings     Settings           `json:"settings"`
	CurrentRound int                `json:"current_round"`
	Players      []*Player          `json:"players"`
	Teams        map[Team][]*Player `json:"teams"`
	Scores       map[Team]int       `json:"scores"`
	CurrentTask  string             `json:"current_task"`
	Votes        map[string]string  `json:"votes"`
	Boys         map[Team]string    `json:"boys"`
	Backers      map[Team]string    `json:"backers"`
	Auction      Auction            `json:"auction"`
	RoundResult  RoundResult        `json:"round_result"`
	LastMessage  string             `json:"last_message"`
	AbortReason  string             `json:"abort_reason"`
}

const (
	defaultTimerSeconds = 60
	defaultMaxRounds    = 3
)

func newGameState(roomCode string) *GameState {
	return &GameState{
		RoomCode:     roomCode,
		Status:       StatusLobby,
		Settings:     Settings{Timer: defaultTimerSeconds, MaxRounds: defaultMaxRounds},
		CurrentRound: 1,
		Players:      []*Player{},
		Teams:        map[Team][]*Player{TeamA: {}, TeamB: {}},
		Scores:       map[Team]int{TeamA: 0, TeamB: 0},
		Votes:        map[string]string{},
		Boys:         map[Team]string{TeamA: "", TeamB: ""},
		Backers:      map[Team]string{TeamA: "", TeamB: ""},
		RoundResult:  RoundResult{Answers: []Answer{}, LiveBubbles: []string{}},
	}
}

func (g *GameState) player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *GameState) isHost(id string) bool {
	return g.HostID != "" && g.HostID == id
}

// removeFromTeam drops the player with the given id from one team list,
// preserving order.
func (g *GameState) removeFromTeam(team Team, id string) {
	members := g.Teams[team]
	dst := members[:0]
	for _, p := range members {
		if p.ID == id {
			continue
		}
		dst = append(dst, p)
	}
	g.Teams[team] = dst
}

// Action is the inbound client message. Only the fields relevant to the
// named action are expected to be set; the rest stay zero.
type Action struct {
	Action   string         `json:"action"`
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Avatar   map[string]any `json:"avatar"`
	PlayerID string         `json:"player_id"`
	TargetID string         `json:"target_id"`
	NewTeam  Team           `json:"new_team"`
	Timer    int            `json:"timer"`
	Rounds   int            `json:"rounds"`
	Task     string         `json:"task"`
	Amount   int            `json:"amount"`
	Team     Team           `json:"team"`
	Bubbles  []string       `json:"bubbles"`
	Answers  []string       `json:"answers"`
	Index    int            `json:"index"`
}

const (
	ActionJoinGame       = "JOIN_GAME"
	ActionStartGame      = "START_GAME"
	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionSwitchTeam     = "SWITCH_TEAM"
	ActionChangeTask     = "CHANGE_TASK"
	ActionSetCustomTask  = "SET_CUSTOM_TASK"
	ActionCastVote       = "CAST_VOTE"
	ActionPlaceBid       = "PLACE_BID"
	ActionCallBullshit   = "CALL_BULLSHIT"
	ActionLiveTyping     = "LIVE_TYPING"
	ActionSubmitAnswers  = "SUBMIT_ANSWERS"
	ActionGiveUp         = "GIVE_UP"
	ActionToggleValidity = "TOGGLE_VALIDITY"
	ActionFinalizeRound  = "FINALIZE_ROUND"
	ActionPlayAgain      = "PLAY_AGAIN"
	ActionEndRoom        = "END_ROOM"
)

// StateMessage is the broadcast envelope sent after every mutation.
type StateMessage struct {
	Type  string     `json:"type"`
	State *GameState `json:"state"`
}

const updateStateType = "UPDATE_STATE"
