package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/oracle"
	"github.com/hailam/chessbot/internal/storage"
)

// Engine identification
const (
	EngineName   = "ChessBot"
	EngineAuthor = "ChessBot Team"
	playerName   = "chessbot"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	game   *oracle.Game
	logger zerolog.Logger

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // guards out

	// Current game, for the journal
	startFEN string
	moves    []string
	started  time.Time

	journal        *storage.Storage
	journalEnabled bool

	// Search state
	searching  bool
	searchDone chan struct{}
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		game:     oracle.NewGame(),
		logger:   zerolog.Nop(),
		in:       in,
		out:      out,
		startFEN: oracle.StartFEN,
		started:  time.Now(),
	}
}

// SetLogger sets the diagnostics logger. Diagnostics never go to out.
func (u *UCI) SetLogger(logger zerolog.Logger) {
	u.logger = logger
}

// SetJournal enables recording of finished games to s.
func (u *UCI) SetJournal(s *storage.Storage) {
	u.journal = s
	u.journalEnabled = s != nil
}

// Run reads commands until "quit" or the end of input.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.waitSearch()
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.waitSearch()
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return nil
		case "setoption":
			u.waitSearch()
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.waitSearch()
			u.send("%s", u.game.String())
		case "eval":
			u.waitSearch()
			u.handleEval()
		default:
			u.logger.Debug().Str("command", line).Msg("unknown-command")
		}
	}

	u.handleQuit()
	return errors.Wrap(scanner.Err(), "read commands")
}

func (u *UCI) send(format string, args ...interface{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	opts := u.engine.Options()
	u.send("id name %s", EngineName)
	u.send("id author %s", EngineAuthor)
	u.send("")
	u.send("option name MaxDepth type spin default %d min 1 max %d", opts.MaxDepth, engine.MaxPly/2)
	u.send("option name MoveTime type spin default %d min 0 max 600000", opts.MoveTime.Milliseconds())
	u.send("option name PVTableSize type spin default %d min 1 max 100000000", opts.PVTableSize)
	u.send("option name QuiescencePlyCap type spin default %d min 1 max %d", opts.QuiescencePlyCap, engine.MaxPly-1)
	u.send("option name Journal type check default %t", u.journalEnabled)
	u.send("uciok")
}

// handleNewGame journals the previous game and resets for a new one.
func (u *UCI) handleNewGame() {
	u.waitSearch()
	u.recordGame()
	u.engine.Clear()
	u.game = oracle.NewGame()
	u.startFEN = oracle.StartFEN
	u.moves = nil
	u.started = time.Now()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	// Find "moves" keyword
	specEnd := len(args)
	for i, arg := range args {
		if arg == "moves" {
			specEnd = i
			break
		}
	}
	moveStart := min(specEnd+1, len(args))

	var fen string
	switch args[0] {
	case "startpos":
		fen = oracle.StartFEN
	case "fen":
		fen = strings.Join(args[1:specEnd], " ")
	default:
		u.logger.Warn().Strs("args", args).Msg("bad-position")
		return
	}

	game, err := oracle.FromFEN(fen)
	if err != nil {
		u.logger.Warn().Err(err).Msg("invalid-fen")
		return
	}

	var moves []string
	for _, s := range args[moveStart:] {
		if err := game.Play(s); err != nil {
			u.logger.Warn().Err(err).Str("move", s).Msg("invalid-move")
			break
		}
		moves = append(moves, s)
	}

	u.game = game
	u.startFEN = fen
	u.moves = moves
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.waitSearch()
	opts := parseGoOptions(args)

	tm := engine.NewTimeManager()
	tm.Init(engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
		Depth:     opts.Depth,
		Infinite:  opts.Infinite,
	}, u.game.WhiteToMove(), len(u.moves))

	limits := engine.SearchLimits{
		Depth:    opts.Depth,
		MoveTime: tm.Budget(),
		Infinite: tm.Budget() == 0,
		Clock:    tm,
	}

	u.engine.OnInfo = u.sendInfo

	u.searching = true
	u.searchDone = make(chan struct{})
	game := u.game

	go func() {
		defer close(u.searchDone)

		d, err := u.engine.DecideMove(game, limits)
		if err != nil {
			// Only checkmate/stalemate (no legal moves)
			u.logger.Info().Err(err).Msg("no-move")
			u.send("bestmove 0000")
			return
		}
		if d.Fallback {
			u.logger.Warn().Str("move", d.Move.String()).Msg("fallback-move")
		}
		u.logger.Debug().
			Str("move", d.Move.String()).
			Int("score", d.Score).
			Int("depth", d.Depth).
			Uint64("nodes", d.Nodes).
			Dur("elapsed", d.Elapsed).
			Msg("bestmove")
		u.send("bestmove %s", d.Move)
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	millis := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "infinite":
			opts.Infinite = true
			continue
		}
		if i+1 >= len(args) {
			break
		}
		switch args[i] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(args[i+1])
		case "movetime":
			opts.MoveTime = millis(i + 1)
		case "wtime":
			opts.WTime = millis(i + 1)
		case "btime":
			opts.BTime = millis(i + 1)
		case "winc":
			opts.WInc = millis(i + 1)
		case "binc":
			opts.BInc = millis(i + 1)
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(args[i+1])
		default:
			continue
		}
		i++
	}

	return opts
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		formatScore(info.Score, info.Depth),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		parts = append(parts, "pv "+engine.FormatPV(info.PV))
	}

	u.send("info %s", strings.Join(parts, " "))
}

// formatScore renders a search score as a UCI "score" clause. Mate scores
// carry the remaining depth at the mated node, which gives the distance to
// mate in plies for a search of the given depth.
func formatScore(score, depth int) string {
	if !engine.IsMateScore(score) {
		return fmt.Sprintf("score cp %d", score)
	}
	sign := 1
	if score < 0 {
		sign, score = -1, -score
	}
	plies := depth - (score - engine.MateScore)
	if plies < 1 {
		plies = 1
	}
	return fmt.Sprintf("score mate %d", sign*(plies+1)/2)
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	score := u.engine.Evaluate(u.game)
	u.send("info string eval %s (%d cp, side to move), material %d cp (white)",
		engine.ScoreToString(score), score, engine.EvaluateMaterial(u.game))
}

// waitSearch blocks until the running search, if any, has printed its move.
func (u *UCI) waitSearch() {
	if u.searching {
		<-u.searchDone
		u.searching = false
	}
}

// handleStop waits for the current search. Searches are not preemptible; the
// move is sent once the running decision completes.
func (u *UCI) handleStop() {
	u.waitSearch()
}

// handleQuit waits for the search and journals the current game.
func (u *UCI) handleQuit() {
	u.waitSearch()
	u.recordGame()
	u.moves = nil
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	opts := u.engine.Options()
	n, numErr := strconv.Atoi(value)

	switch strings.ToLower(name) {
	case "maxdepth":
		if numErr == nil {
			opts.MaxDepth = n
		}
	case "movetime":
		if numErr == nil {
			opts.MoveTime = time.Duration(n) * time.Millisecond
		}
	case "pvtablesize":
		if numErr == nil {
			opts.PVTableSize = n
		}
	case "quiescenceplycap":
		if numErr == nil {
			opts.QuiescencePlyCap = n
		}
	case "journal":
		u.journalEnabled = strings.ToLower(value) == "true" && u.journal != nil
		if strings.ToLower(value) == "true" && u.journal == nil {
			u.logger.Warn().Msg("journal-unavailable")
		}
		return
	default:
		u.logger.Debug().Str("name", name).Msg("unknown-option")
		return
	}

	if numErr != nil {
		u.logger.Warn().Str("name", name).Str("value", value).Msg("bad-option-value")
		return
	}
	u.engine.SetOptions(opts)
	u.logger.Debug().Str("name", name).Str("value", value).Msg("option-set")
}

// recordGame writes the current game to the journal when enabled.
func (u *UCI) recordGame() {
	if !u.journalEnabled || u.journal == nil || len(u.moves) == 0 {
		return
	}

	result, termination := Adjudicate(u.game)
	rec := &storage.GameRecord{
		White:       playerName,
		Black:       playerName,
		StartFEN:    u.startFEN,
		Result:      result,
		Termination: termination,
		Moves:       append([]string(nil), u.moves...),
		Started:     u.started,
		Duration:    time.Since(u.started),
	}
	if err := u.journal.RecordGame(rec); err != nil {
		u.logger.Error().Err(err).Msg("journal-write")
		return
	}
	u.logger.Info().Str("id", rec.ID).Str("result", result).Int("plies", len(u.moves)).Msg("game-journaled")
}

// Adjudicate returns the PGN result and termination of the game's current
// position, or "*" when the game is still in progress.
func Adjudicate(g *oracle.Game) (result, termination string) {
	if len(g.LegalMoves(false)) == 0 {
		if !g.InCheck() {
			return storage.ResultDraw, "Stalemate"
		}
		if g.WhiteToMove() {
			return storage.ResultBlackWins, "Checkmate"
		}
		return storage.ResultWhiteWins, "Checkmate"
	}
	switch {
	case g.HalfmoveClock() >= 100:
		return storage.ResultDraw, "FiftyMoveRule"
	case g.InsufficientMaterial():
		return storage.ResultDraw, "InsufficientMaterial"
	}
	if count, _ := g.History().Occurrences(); count >= 2 {
		return storage.ResultDraw, "ThreefoldRepetition"
	}
	return storage.ResultUnknown, ""
}
