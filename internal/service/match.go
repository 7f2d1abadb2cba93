package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
	"github.com/maxviazov/sideline-rotation/internal/timer"
)

// MatchDefaults fill in a new match that omits its period settings.
type MatchDefaults struct {
	NumPeriods            int
	PeriodDurationMinutes int
}

type matchService struct {
	snapshots repository.SnapshotRepository
	events    repository.EventRepository
	tx        repository.TxManager
	src       timer.Source
	defaults  MatchDefaults
	validate  *validator.Validate
	newID     func() string
	log       zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]model.MatchSnapshot
}

func NewMatchService(
	snapshots repository.SnapshotRepository,
	events repository.EventRepository,
	tx repository.TxManager,
	src timer.Source,
	defaults MatchDefaults,
	logger zerolog.Logger,
) MatchService {
	l := logger.With().Str("module", "service").Str("component", "match").Logger()
	if defaults.NumPeriods <= 0 {
		defaults.NumPeriods = model.DefaultNumPeriods
	}
	if defaults.PeriodDurationMinutes <= 0 {
		defaults.PeriodDurationMinutes = model.DefaultPeriodDurationMinutes
	}
	return &matchService{
		snapshots: snapshots,
		events:    events,
		tx:        tx,
		src:       src,
		defaults:  defaults,
		validate:  validator.New(),
		newID:     uuid.NewString,
		log:       l,
		locks:     map[string]*sync.Mutex{},
		cache:     map[string]model.MatchSnapshot{},
	}
}

// lockFor serializes writes per match; a double tap waits for the first
// request and then sees its result.
func (s *matchService) lockFor(matchID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[matchID] = l
	}
	return l
}

func (s *matchService) cached(matchID string) (model.MatchSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.cache[matchID]
	return snap, ok
}

func (s *matchService) remember(snap model.MatchSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[snap.MatchID] = snap
}

func (s *matchService) forget(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, matchID)
}

func (s *matchService) load(ctx context.Context, matchID string) (model.MatchSnapshot, error) {
	if strings.TrimSpace(matchID) == "" {
		return model.MatchSnapshot{}, ErrNoMatchID
	}
	if snap, ok := s.cached(matchID); ok {
		return snap, nil
	}
	snap, err := s.snapshots.Load(ctx, matchID)
	if err != nil {
		return model.MatchSnapshot{}, err
	}
	snap.Normalize()
	s.remember(snap)
	return snap, nil
}

// mutate runs fn on a private session and persists the snapshot plus every
// event fn emitted in one transaction. fn returning errNoChange skips the write.
func (s *matchService) mutate(ctx context.Context, matchID string, fn func(*session) error) (*session, error) {
	lock := s.lockFor(matchID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess := newSession(snap, s.src, s.log)
	if err := fn(sess); err != nil {
		if errors.Is(err, errNoChange) {
			return sess, nil
		}
		if errors.Is(err, substitution.ErrStateDesync) {
			s.log.Error().Err(err).Str("match_id", matchID).Msg("engine state desync, change rejected")
		}
		return nil, err
	}

	out := sess.finish()
	pending := sess.events.Drain()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		saved, err := s.snapshots.Save(ctx, out)
		if err != nil {
			return err
		}
		if err := s.events.Append(ctx, pending); err != nil {
			return err
		}
		for _, id := range sess.undone {
			if err := s.events.MarkUndone(ctx, matchID, id); err != nil {
				return fmt.Errorf("mark event %s undone: %w", id, err)
			}
		}
		out = saved
		return nil
	})
	if err != nil {
		// Another writer may have moved the version on.
		s.forget(matchID)
		s.log.Warn().Err(err).Str("match_id", matchID).Msg("match write failed")
		return nil, err
	}
	s.remember(out)
	sess.snap = out
	return sess, nil
}

var errNoChange = errors.New("no change")

func (s *matchService) CreateMatch(ctx context.Context, in CreateMatchInput) (LiveView, error) {
	if err := s.validateCreate(in); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("match validation failed")
		return LiveView{}, err
	}

	players := make([]model.Player, 0, len(in.Players))
	for _, p := range in.Players {
		players = append(players, model.Player{
			ID:           strings.TrimSpace(p.ID),
			Name:         strings.TrimSpace(p.Name),
			JerseyNumber: p.JerseyNumber,
			Stats:        model.PlayerStats{IsCaptain: p.IsCaptain},
		})
	}
	cfg := in.TeamConfig
	if cfg.SquadSize == 0 {
		cfg.SquadSize = len(players)
	}
	if cfg.Format == "" {
		cfg.Format = "5v5"
	}
	if err := formation.ValidateConfig(cfg); err != nil {
		return LiveView{}, err
	}

	snap := model.MatchSnapshot{
		MatchID:               s.newID(),
		TeamName:              strings.TrimSpace(in.TeamName),
		OpponentName:          strings.TrimSpace(in.OpponentName),
		TeamConfig:            cfg,
		Players:               players,
		NumPeriods:            firstPositive(in.NumPeriods, s.defaults.NumPeriods),
		PeriodDurationMinutes: firstPositive(in.PeriodDurationMinutes, s.defaults.PeriodDurationMinutes),
	}
	snap.Normalize()

	sess := newSession(snap, s.src, s.log)
	f := model.Formation{Positions: in.Formation}
	if len(in.Formation) == 0 {
		f = rosterLineup(cfg, players)
	}
	st, err := sess.mgr.Initialize(f.Clone(), players)
	if err != nil {
		return LiveView{}, err
	}
	sess.apply(st)

	created, err := s.snapshots.Create(ctx, sess.finish())
	if err != nil {
		return LiveView{}, err
	}
	s.remember(created)
	sess.snap = created
	s.log.Info().Str("match_id", created.MatchID).Int("squad", len(players)).
		Str("formation", string(cfg.FormationType)).Str("substitution", string(cfg.SubstitutionType)).
		Msg("match created")
	return sess.view(), nil
}

func (s *matchService) validateCreate(in CreateMatchInput) error {
	var ferrs []FieldError
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			ferrs = append(ferrs, FieldError{Field: jsonPath(fe.Namespace()), Message: "failed on " + fe.Tag()})
		}
	}
	seen := map[string]bool{}
	for i, p := range in.Players {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		if seen[id] {
			ferrs = append(ferrs, FieldError{Field: fmt.Sprintf("players[%d].id", i), Message: "duplicate player id"})
		}
		seen[id] = true
	}
	return newInvalidInput(ferrs)
}

// jsonPath turns "CreateMatchInput.Players[2].Name" into "players[2].name".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// rosterLineup is the default lineup when none is sent: the first player in
// goal, the next ones on the field in slot order, the rest on the bench.
func rosterLineup(cfg model.TeamConfig, players []model.Player) model.Formation {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return model.NewFormation()
	}
	field := ids[1:min(len(ids), formation.FieldSlots+1)]
	bench := ids[len(field)+1:]
	return formation.Build(cfg, ids[0], field, bench)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (s *matchService) GetLiveView(ctx context.Context, matchID string) (LiveView, error) {
	snap, err := s.load(ctx, matchID)
	if err != nil {
		return LiveView{}, err
	}
	return newSession(snap, s.src, s.log).view(), nil
}

func (s *matchService) ListEvents(ctx context.Context, matchID string) ([]model.GameEvent, error) {
	if _, err := s.load(ctx, matchID); err != nil {
		return nil, err
	}
	return s.events.ListByMatch(ctx, matchID)
}

// FinalStats reports per-player time for a match that has started; open
// stints are credited up to now.
func (s *matchService) FinalStats(ctx context.Context, matchID string) (model.FinalStats, error) {
	snap, err := s.load(ctx, matchID)
	if err != nil {
		return model.FinalStats{}, err
	}
	if len(snap.Players) == 0 || snap.MatchStartEpoch == 0 {
		return model.FinalStats{}, fmt.Errorf("%w: match %s has not started", ErrIncompleteMatchData, matchID)
	}
	sess := newSession(snap, s.src, s.log)
	players := sess.snap.Players
	if sess.snap.PeriodState.Active() {
		st, err := sess.state()
		if err != nil {
			return model.FinalStats{}, err
		}
		players = sess.mgr.Refresh(st, sess.now).Players
	}

	periods := sess.snap.CurrentPeriod
	if sess.snap.PeriodState == model.PeriodNotStarted {
		periods--
	}
	out := model.FinalStats{
		MatchID:         matchID,
		DurationSeconds: sess.matchTimerSeconds(),
		PeriodsPlayed:   periods,
		GoalsScored:     sess.snap.OwnScore,
		GoalsConceded:   sess.snap.OpponentScore,
		Players:         make([]model.PlayerFinalStats, 0, len(players)),
	}
	for _, p := range players {
		st := p.Stats
		out.Players = append(out.Players, model.PlayerFinalStats{
			PlayerID:                p.ID,
			Name:                    p.Name,
			StartedMatchAs:          st.StartedMatchAs,
			StartedAtRole:           st.StartedAtRole,
			TimeOnFieldSeconds:      st.TimeOnFieldSeconds,
			TimeAsGoalieSeconds:     st.TimeAsGoalieSeconds,
			TimeAsDefenderSeconds:   st.TimeAsDefenderSeconds,
			TimeAsAttackerSeconds:   st.TimeAsAttackerSeconds,
			TimeAsMidfielderSeconds: st.TimeAsMidfielderSeconds,
			Goals:                   st.Goals,
			IsCaptain:               st.IsCaptain,
			IsInactive:              st.IsInactive,
		})
	}
	return out, nil
}

// ResetMatch drops the match and its event log.
func (s *matchService) ResetMatch(ctx context.Context, matchID string) error {
	if strings.TrimSpace(matchID) == "" {
		return ErrNoMatchID
	}
	lock := s.lockFor(matchID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.snapshots.Delete(ctx, matchID); err != nil {
		return err
	}
	s.forget(matchID)
	s.log.Info().Str("match_id", matchID).Msg("match reset")
	return nil
}
