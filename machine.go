package main

import (
	"fmt"
	"math/rand"
	"strings"
)

// Machine applies inbound actions to a GameState. It performs no I/O;
// the owning room decides what to do with the returned Outcome.
type Machine struct {
	tasks *TaskCatalog
	rng   *rand.Rand
}

func newMachine(tasks *TaskCatalog, rng *rand.Rand) *Machine {
	return &Machine{
		tasks: tasks,
		rng:   rng,
	}
}

// RoundSummary describes one resolved round, consumed by the history sink.
type RoundSummary struct {
	Round      int
	ActiveTeam Team
	Target     int
	Submitted  int
	ValidCount int
	Winner     Team
}

// Outcome tells the caller whether the state changed in a way worth
// broadcasting, whether a round just resolved, and whether the room
// should be torn down after the broadcast.
type Outcome struct {
	Broadcast bool
	RoundDone *RoundSummary
	CloseRoom bool
}

var broadcast = Outcome{Broadcast: true}

// Apply runs a single action against the state. Unknown actions, actions
// from non-hosts on host-gated commands, and actions out of phase are
// ignored without mutating anything.
func (m *Machine) Apply(g *GameState, msg Action, actorID string) Outcome {
	switch msg.Action {
	case ActionJoinGame:
		return m.joinGame(g, msg)
	case ActionStartGame:
		return m.startGame(g, actorID)
	case ActionUpdateSettings:
		return m.updateSettings(g, msg, actorID)
	case ActionSwitchTeam:
		return m.switchTeam(g, msg, actorID)
	case ActionChangeTask:
		return m.changeTask(g, actorID)
	case ActionSetCustomTask:
		return m.setCustomTask(g, msg, actorID)
	case ActionCastVote:
		return m.castVote(g, msg, actorID)
	case ActionPlaceBid:
		return m.placeBid(g, msg)
	case ActionCallBullshit:
		return m.callBullshit(g)
	case ActionLiveTyping:
		return m.liveTyping(g, msg)
	case ActionSubmitAnswers:
		return m.submitAnswers(g, msg)
	case ActionGiveUp:
		return m.giveUp(g)
	case ActionToggleValidity:
		return m.toggleValidity(g, msg)
	case ActionFinalizeRound:
		return m.finalizeRound(g)
	case ActionPlayAgain:
		return m.playAgain(g, actorID)
	case ActionEndRoom:
		return m.endRoom(g, actorID)
	}
	return Outcome{}
}

// joinGame assigns the new player to the smaller team, ties going to
// team A. A repeat join with a known id changes nothing but is still
// broadcast so the rejoining client receives the current state.
func (m *Machine) joinGame(g *GameState, msg Action) Outcome {
	if msg.ID == "" {
		return Outcome{}
	}
	if g.player(msg.ID) != nil {
		return broadcast
	}

	team := TeamA
	if len(g.Teams[TeamA]) > len(g.Teams[TeamB]) {
		team = TeamB
	}

	p := &Player{
		ID:        msg.ID,
		Name:      msg.Name,
		Avatar:    msg.Avatar,
		Team:      team,
		Connected: true,
	}
	g.Players = append(g.Players, p)
	g.Teams[team] = append(g.Teams[team], p)

	return broadcast
}

func (m *Machine) startGame(g *GameState, actorID string) Outcome {
	if !g.isHost(actorID) {
		return Outcome{}
	}
	if len(g.Teams[TeamA]) < 2 || len(g.Teams[TeamB]) < 2 {
		g.LastMessage = "Cannot Start! Each team needs at least 2 players."
		return broadcast
	}

	g.AbortReason = ""
	g.CurrentRound = 1
	g.Scores = map[Team]int{TeamA: 0, TeamB: 0}
	m.startNewRound(g)

	return broadcast
}

func (m *Machine) updateSettings(g *GameState, msg Action, actorID string) Outcome {
	if !g.isHost(actorID) || g.Status != StatusLobby {
		return Outcome{}
	}
	if msg.Timer <= 0 || msg.Rounds <= 0 {
		return Outcome{}
	}
	g.Settings.Timer = msg.Timer
	g.Settings.MaxRounds = msg.Rounds
	return broadcast
}

func (m *Machine) switchTeam(g *GameState, msg Action, actorID string) Outcome {
	if !g.isHost(actorID) {
		return Outcome{}
	}
	if msg.NewTeam != TeamA && msg.NewTeam != TeamB {
		return Outcome{}
	}
	p := g.player(msg.TargetID)
	if p == nil || p.Team == msg.NewTeam {
		return Outcome{}
	}

	g.removeFromTeam(p.Team, p.ID)
	p.Team = msg.NewTeam
	g.Teams[msg.NewTeam] = append(g.Teams[msg.NewTeam], p)

	return broadcast
}

func (m *Machine) changeTask(g *GameState, actorID string) Outcome {
	if !g.isHost(actorID) || g.Status != StatusNomination {
		return Outcome{}
	}
	g.CurrentTask = m.tasks.RandomExcept(m.rng, g.CurrentTask)
	// Votes cast against the old prompt no longer mean anything.
	g.Votes = map[string]string{}
	return broadcast
}

func (m *Machine) setCustomTask(g *GameState, msg Action, actorID string) Outcome {
	if !g.isHost(actorID) || g.Status != StatusNomination {
		return Outcome{}
	}
	task := strings.TrimSpace(msg.Task)
	if task == "" {
		return Outcome{}
	}
	g.CurrentTask = task
	g.Votes = map[string]string{}
	return broadcast
}

func (m *Machine) castVote(g *GameState, msg Action, actorID string) Outcome {
	if g.Status != StatusNomination || g.player(actorID) == nil {
		return Outcome{}
	}
	g.Votes[actorID] = msg.TargetID

	if len(g.Votes) == len(g.Players) {
		m.resolveVotes(g)
		g.Status = StatusAuction
		turn := TeamA
		if m.rng.Intn(2) == 1 {
			turn = TeamB
		}
		g.Auction = Auction{CurrentBid: 0, HoldingTeam: "", Turn: turn}
	}

	return broadcast
}

// resolveVotes nominates each team's boy from the votes its own members
// cast, then picks a backer at random from the rest of the team.
func (m *Machine) resolveVotes(g *GameState) {
	for _, team := range []Team{TeamA, TeamB} {
		members := g.Teams[team]
		if len(members) == 0 {
			continue
		}

		memberIDs := make(map[string]bool, len(members))
		for _, p := range members {
			memberIDs[p.ID] = true
		}

		tally := map[string]int{}
		for voter, target := range g.Votes {
			if memberIDs[voter] {
				tally[target]++
			}
		}

		var boy string
		if len(tally) == 0 {
			boy = members[m.rng.Intn(len(members))].ID
		} else {
			top := 0
			for _, n := range tally {
				if n > top {
					top = n
				}
			}
			var leaders []string
			for _, p := range g.Players {
				if tally[p.ID] == top {
					leaders = append(leaders, p.ID)
				}
			}
			// Votes are not validated against the roster, so a target
			// outside the room can still lead the tally.
			for target, n := range tally {
				if n == top && g.player(target) == nil {
					leaders = append(leaders, target)
				}
			}
			boy = leaders[m.rng.Intn(len(leaders))]
		}
		g.Boys[team] = boy

		var rest []string
		for _, p := range members {
			if p.ID != boy {
				rest = append(rest, p.ID)
			}
		}
		if len(rest) > 0 {
			g.Backers[team] = rest[m.rng.Intn(len(rest))]
		} else {
			g.Backers[team] = boy
		}
	}
}

// placeBid enforces monotonic bidding and turn alternation. A bid that
// does not raise the current one is rejected with a notice; a bid from
// the team already holding the auction is dropped.
func (m *Machine) placeBid(g *GameState, msg Action) Outcome {
	if g.Status != StatusAuction {
		return Outcome{}
	}
	if msg.Team != TeamA && msg.Team != TeamB {
		return Outcome{}
	}
	if msg.Team == g.Auction.HoldingTeam {
		return Outcome{}
	}
	if msg.Amount <= g.Auction.CurrentBid {
		g.LastMessage = fmt.Sprintf("Bid must be higher than %d!", g.Auction.CurrentBid)
		return broadcast
	}

	g.Auction.CurrentBid = msg.Amount
	g.Auction.HoldingTeam = msg.Team
	g.Auction.Turn = msg.Team.Opponent()

	return broadcast
}

func (m *Machine) callBullshit(g *GameState) Outcome {
	if g.Status != StatusAuction || g.Auction.HoldingTeam == "" {
		return Outcome{}
	}
	g.RoundResult.ActiveTeam = g.Auction.HoldingTeam
	g.RoundResult.Target = g.Auction.CurrentBid
	g.RoundResult.LiveBubbles = []string{}
	g.Status = StatusPerformance
	return broadcast
}

func (m *Machine) liveTyping(g *GameState, msg Action) Outcome {
	if g.Status != StatusPerformance {
		return Outcome{}
	}
	bubbles := msg.Bubbles
	if bubbles == nil {
		bubbles = []string{}
	}
	g.RoundResult.LiveBubbles = bubbles
	return broadcast
}

func (m *Machine) submitAnswers(g *GameState, msg Action) Outcome {
	if g.Status != StatusPerformance {
		return Outcome{}
	}

	target := g.RoundResult.Target
	active := g.RoundResult.ActiveTeam
	challenger := active.Opponent()

	if len(msg.Answers) < target {
		g.Scores[challenger]++
		g.LastMessage = fmt.Sprintf("Team %s Failed! Only submitted %d/%d.", active, len(msg.Answers), target)
		summary := &RoundSummary{
			Round:      g.CurrentRound,
			ActiveTeam: active,
			Target:     target,
			Submitted:  len(msg.Answers),
			Winner:     challenger,
		}
		m.checkNextRound(g)
		return Outcome{Broadcast: true, RoundDone: summary}
	}

	answers := make([]Answer, 0, len(msg.Answers))
	for _, word := range msg.Answers {
		answers = append(answers, Answer{Word: word, Valid: true})
	}
	g.RoundResult.Answers = answers
	g.Status = StatusValidation

	return broadcast
}

func (m *Machine) giveUp(g *GameState) Outcome {
	if g.Status != StatusPerformance {
		return Outcome{}
	}

	active := g.RoundResult.ActiveTeam
	challenger := active.Opponent()
	g.Scores[challenger]++
	g.LastMessage = fmt.Sprintf("Team %s Gave Up!", active)

	summary := &RoundSummary{
		Round:      g.CurrentRound,
		ActiveTeam: active,
		Target:     g.RoundResult.Target,
		Winner:     challenger,
	}
	m.checkNextRound(g)

	return Outcome{Broadcast: true, RoundDone: summary}
}

func (m *Machine) toggleValidity(g *GameState, msg Action) Outcome {
	if g.Status != StatusValidation {
		return Outcome{}
	}
	if msg.Index < 0 || msg.Index >= len(g.RoundResult.Answers) {
		return Outcome{}
	}
	g.RoundResult.Answers[msg.Index].Valid = !g.RoundResult.Answers[msg.Index].Valid
	return broadcast
}

func (m *Machine) finalizeRound(g *GameState) Outcome {
	if g.Status != StatusValidation {
		return Outcome{}
	}

	valid := 0
	for _, a := range g.RoundResult.Answers {
		if a.Valid {
			valid++
		}
	}

	target := g.RoundResult.Target
	active := g.RoundResult.ActiveTeam
	challenger := active.Opponent()

	winner := challenger
	if valid >= target {
		winner = active
		g.Scores[active]++
		g.LastMessage = fmt.Sprintf("Team %s Won the Round!", active)
	} else {
		g.Scores[challenger]++
		g.LastMessage = fmt.Sprintf("Team %s Failed! Point to %s.", active, challenger)
	}

	summary := &RoundSummary{
		Round:      g.CurrentRound,
		ActiveTeam: active,
		Target:     target,
		Submitted:  len(g.RoundResult.Answers),
		ValidCount: valid,
		Winner:     winner,
	}
	m.checkNextRound(g)

	return Outcome{Broadcast: true, RoundDone: summary}
}

func (m *Machine) playAgain(g *GameState, actorID string) Outcome {
	if !g.isHost(actorID) {
		return Outcome{}
	}
	g.Status = StatusLobby
	g.Scores = map[Team]int{TeamA: 0, TeamB: 0}
	g.CurrentRound = 1
	return broadcast
}

func (m *Machine) endRoom(g *GameState, actorID string) Outcome {
	if !g.isHost(actorID) {
		return Outcome{}
	}
	g.Status = StatusClosed
	return Outcome{Broadcast: true, CloseRoom: true}
}

// startNewRound re-enters nomination with a fresh prompt and cleared
// per-round bookkeeping.
func (m *Machine) startNewRound(g *GameState) {
	g.Status = StatusNomination
	g.CurrentTask = m.tasks.Random(m.rng)
	g.Votes = map[string]string{}
	g.Boys = map[Team]string{TeamA: "", TeamB: ""}
	g.Backers = map[Team]string{TeamA: "", TeamB: ""}
	g.Auction = Auction{}
	g.RoundResult.LiveBubbles = []string{}
}

// checkNextRound ends the game on the final round, otherwise advances
// the counter and re-enters nomination.
func (m *Machine) checkNextRound(g *GameState) {
	if g.CurrentRound >= g.Settings.MaxRounds {
		g.Status = StatusGameOver
		return
	}
	g.CurrentRound++
	m.startNewRound(g)
}

// RemovePlayer handles a disconnect: the player is dropped from the
// roster and both team lists, the host role moves to the next remaining
// player if needed, and any in-progress round is aborted back to the
// lobby with a notice naming the leaver.
func (m *Machine) RemovePlayer(g *GameState, playerID string) {
	leaverName := "Unknown"
	if p := g.player(playerID); p != nil {
		leaverName = p.Name
	}

	dst := g.Players[:0]
	for _, p := range g.Players {
		if p.ID == playerID {
			continue
		}
		dst = append(dst, p)
	}
	g.Players = dst
	g.removeFromTeam(TeamA, playerID)
	g.removeFromTeam(TeamB, playerID)
	delete(g.Votes, playerID)

	if g.HostID == playerID {
		g.HostID = ""
		if len(g.Players) > 0 {
			g.HostID = g.Players[0].ID
		}
	}

	if g.Status.inRound() {
		g.Status = StatusLobby
		g.AbortReason = fmt.Sprintf("Round Aborted! %s disconnected.", leaverName)
		g.CurrentRound = 1
	}
}
