package team

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/storage"
)

// DefaultMessageLogBound is how many team chat messages are retained
const DefaultMessageLogBound = 50

// Service manages teams, their score rankings and bounded chat logs
type Service struct {
	storage  storage.Storage
	broker   pubsub.Broker
	clock    clock.Clock
	logBound int
	logger   *slog.Logger
}

// New creates a team Service
func New(store storage.Storage, broker pubsub.Broker, clk clock.Clock, logBound int, logger *slog.Logger) *Service {
	if logBound <= 0 {
		logBound = DefaultMessageLogBound
	}
	return &Service{
		storage:  store,
		broker:   broker,
		clock:    clk,
		logBound: logBound,
		logger:   logger.With(slog.String("component", "team-service")),
	}
}

// CreateTeam creates a team with the creator enrolled in both the
// member set and the score list at 0. The team ID doubles as the invite
// token.
func (s *Service) CreateTeam(ctx context.Context, creatorName, teamName string) (*model.Team, error) {
	if strings.TrimSpace(creatorName) == "" {
		return nil, model.ErrEmptyDisplayName
	}
	if strings.TrimSpace(teamName) == "" {
		teamName = "Echipa lui " + creatorName
	}

	team := &model.Team{
		ID:          model.TeamID(uuid.NewString()),
		DisplayName: teamName,
		CreatorName: creatorName,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	if err := s.storage.AddTeamMember(ctx, team.ID, creatorName); err != nil {
		return nil, err
	}
	// Zero-delta increment materializes the creator's ranking entry
	if _, err := s.storage.IncrementTeamScore(ctx, team.ID, creatorName, 0); err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		slog.String("team_id", string(team.ID)),
		slog.String("creator", creatorName))
	return team, nil
}

// JoinTeam enrolls a member via the invite token (the team ID itself)
func (s *Service) JoinTeam(ctx context.Context, id model.TeamID, member string) (*model.Team, error) {
	if id == "" {
		return nil, model.ErrMissingTeamID
	}
	if strings.TrimSpace(member) == "" {
		return nil, model.ErrEmptyDisplayName
	}

	team, err := s.storage.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.storage.AddTeamMember(ctx, id, member); err != nil {
		return nil, err
	}
	if _, err := s.storage.IncrementTeamScore(ctx, id, member, 0); err != nil {
		return nil, err
	}

	return team, nil
}

// Details returns the paired snapshot of a team: record, members,
// descending ranking and the chronological message window
func (s *Service) Details(ctx context.Context, id model.TeamID) (*model.TeamDetails, error) {
	if id == "" {
		return nil, model.ErrMissingTeamID
	}

	team, err := s.storage.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.storage.ListTeamMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	ranking, err := s.storage.ReadTeamRanking(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.storage.ReadTeamMessages(ctx, id, s.logBound)
	if err != nil {
		return nil, err
	}

	return &model.TeamDetails{
		Team:     *team,
		Members:  members,
		Ranking:  ranking,
		Messages: messages,
	}, nil
}

// PostMessage appends a chat message to the bounded log and broadcasts
// it on the team channel
func (s *Service) PostMessage(ctx context.Context, id model.TeamID, author, text string) (*model.TeamMessage, error) {
	if id == "" {
		return nil, model.ErrMissingTeamID
	}
	if strings.TrimSpace(author) == "" {
		return nil, model.ErrEmptyDisplayName
	}
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrEmptyMessage
	}

	if _, err := s.storage.GetTeam(ctx, id); err != nil {
		return nil, err
	}

	msg := model.TeamMessage{
		Author: author,
		Text:   text,
		SentAt: s.clock.Now(),
	}
	if err := s.storage.AppendTeamMessage(ctx, id, msg, s.logBound); err != nil {
		return nil, err
	}

	if err := s.broker.Publish(ctx, model.TeamChannel(id), model.EventMessagePosted,
		model.MessagePostedPayload{Author: msg.Author, Text: msg.Text, SentAt: msg.SentAt}); err != nil {
		s.logger.Warn("team message broadcast failed",
			slog.String("team_id", string(id)),
			slog.String("error", err.Error()))
	}

	return &msg, nil
}

// RecordWin bumps a member's score by exactly 1 and re-broadcasts the
// updated ranking on the team channel
func (s *Service) RecordWin(ctx context.Context, id model.TeamID, member string) error {
	if id == "" {
		return model.ErrMissingTeamID
	}

	if _, err := s.storage.IncrementTeamScore(ctx, id, member, 1); err != nil {
		return err
	}

	ranking, err := s.storage.ReadTeamRanking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.broker.Publish(ctx, model.TeamChannel(id), model.EventScoreUpdated,
		model.ScoreUpdatedPayload{TeamID: id, Ranking: ranking}); err != nil {
		s.logger.Warn("score broadcast failed",
			slog.String("team_id", string(id)),
			slog.String("error", err.Error()))
	}
	return nil
}
