package team

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ciocnim/arena/internal/dependencies/mocks"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/storage/memory"
	"github.com/ciocnim/arena/internal/testutil"
)

type TeamSuite struct {
	suite.Suite
	storage *memory.Storage
	broker  *pubsub.MemoryBroker
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestTeamSuite(t *testing.T) {
	suite.Run(t, new(TeamSuite))
}

func (s *TeamSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.broker = pubsub.NewMemoryBroker(logger)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.broker, s.clock, 3, logger)
	s.ctx = context.Background()
}

func (s *TeamSuite) TestCreateTeam_EnrollsCreator() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "Ciocnitorii")
	s.Require().NoError(err)
	s.NotEmpty(team.ID)
	s.Equal("Ciocnitorii", team.DisplayName)
	s.Equal("ana", team.CreatorName)
	s.Equal(s.clock.Now(), team.CreatedAt)

	details, err := s.service.Details(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal([]string{"ana"}, details.Members)
	s.Require().Len(details.Ranking, 1)
	s.Equal(model.RankEntry{Member: "ana", Score: 0}, details.Ranking[0])
	s.Empty(details.Messages)
}

func (s *TeamSuite) TestCreateTeam_DefaultsName() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)
	s.Equal("Echipa lui ana", team.DisplayName)

	team, err = s.service.CreateTeam(s.ctx, "ana", "   ")
	s.Require().NoError(err)
	s.Equal("Echipa lui ana", team.DisplayName)
}

func (s *TeamSuite) TestCreateTeam_RequiresCreatorName() {
	_, err := s.service.CreateTeam(s.ctx, "  ", "Ciocnitorii")
	s.ErrorIs(err, model.ErrEmptyDisplayName)
}

func (s *TeamSuite) TestJoinTeam_IDIsTheInviteToken() {
	created, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)

	joined, err := s.service.JoinTeam(s.ctx, created.ID, "bogdan")
	s.Require().NoError(err)
	s.Equal(created.ID, joined.ID)

	details, err := s.service.Details(s.ctx, created.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"ana", "bogdan"}, details.Members)
	s.Len(details.Ranking, 2)
}

func (s *TeamSuite) TestJoinTeam_UnknownToken() {
	_, err := s.service.JoinTeam(s.ctx, "no-such-team", "bogdan")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *TeamSuite) TestJoinTeam_Validation() {
	_, err := s.service.JoinTeam(s.ctx, "", "bogdan")
	s.ErrorIs(err, model.ErrMissingTeamID)

	created, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)
	_, err = s.service.JoinTeam(s.ctx, created.ID, " ")
	s.ErrorIs(err, model.ErrEmptyDisplayName)
}

func (s *TeamSuite) TestPostMessage_AppendsAndBroadcasts() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)

	var posted []model.MessagePostedPayload
	_, err = s.broker.Subscribe(s.ctx, model.TeamChannel(team.ID), func(env pubsub.Envelope) {
		if env.Event != model.EventMessagePosted {
			return
		}
		var p model.MessagePostedPayload
		s.Require().NoError(json.Unmarshal(env.Payload, &p))
		posted = append(posted, p)
	})
	s.Require().NoError(err)

	msg, err := s.service.PostMessage(s.ctx, team.ID, "ana", "salut")
	s.Require().NoError(err)
	s.Equal("ana", msg.Author)
	s.Equal(s.clock.Now(), msg.SentAt)

	s.Require().Len(posted, 1)
	s.Equal("salut", posted[0].Text)

	details, err := s.service.Details(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().Len(details.Messages, 1)
	s.Equal("salut", details.Messages[0].Text)
}

func (s *TeamSuite) TestPostMessage_BoundedChronologicalLog() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)

	// the suite's log bound is 3; five messages keep only the last three,
	// oldest first
	for i := 1; i <= 5; i++ {
		s.clock.Advance(time.Minute)
		_, err := s.service.PostMessage(s.ctx, team.ID, "ana", fmt.Sprintf("msg-%d", i))
		s.Require().NoError(err)
	}

	details, err := s.service.Details(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().Len(details.Messages, 3)
	s.Equal("msg-3", details.Messages[0].Text)
	s.Equal("msg-4", details.Messages[1].Text)
	s.Equal("msg-5", details.Messages[2].Text)
	s.True(details.Messages[0].SentAt.Before(details.Messages[1].SentAt))
}

func (s *TeamSuite) TestPostMessage_Validation() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)

	_, err = s.service.PostMessage(s.ctx, "", "ana", "salut")
	s.ErrorIs(err, model.ErrMissingTeamID)
	_, err = s.service.PostMessage(s.ctx, team.ID, " ", "salut")
	s.ErrorIs(err, model.ErrEmptyDisplayName)
	_, err = s.service.PostMessage(s.ctx, team.ID, "ana", "  ")
	s.ErrorIs(err, model.ErrEmptyMessage)
	_, err = s.service.PostMessage(s.ctx, "no-such-team", "ana", "salut")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *TeamSuite) TestRecordWin_ReordersRanking() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)
	_, err = s.service.JoinTeam(s.ctx, team.ID, "bogdan")
	s.Require().NoError(err)

	s.Require().NoError(s.service.RecordWin(s.ctx, team.ID, "bogdan"))
	s.Require().NoError(s.service.RecordWin(s.ctx, team.ID, "bogdan"))
	s.Require().NoError(s.service.RecordWin(s.ctx, team.ID, "ana"))

	details, err := s.service.Details(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().Len(details.Ranking, 2)
	s.Equal(model.RankEntry{Member: "bogdan", Score: 2}, details.Ranking[0])
	s.Equal(model.RankEntry{Member: "ana", Score: 1}, details.Ranking[1])
}

func (s *TeamSuite) TestRecordWin_BroadcastsRanking() {
	team, err := s.service.CreateTeam(s.ctx, "ana", "")
	s.Require().NoError(err)

	var updates []model.ScoreUpdatedPayload
	_, err = s.broker.Subscribe(s.ctx, model.TeamChannel(team.ID), func(env pubsub.Envelope) {
		if env.Event != model.EventScoreUpdated {
			return
		}
		var p model.ScoreUpdatedPayload
		s.Require().NoError(json.Unmarshal(env.Payload, &p))
		updates = append(updates, p)
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.RecordWin(s.ctx, team.ID, "ana"))

	s.Require().Len(updates, 1)
	s.Equal(team.ID, updates[0].TeamID)
	s.Require().Len(updates[0].Ranking, 1)
	s.Equal(model.RankEntry{Member: "ana", Score: 1}, updates[0].Ranking[0])
}
