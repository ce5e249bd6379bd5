package counter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/storage/memory"
	"github.com/ciocnim/arena/internal/testutil"
)

type CounterSuite struct {
	suite.Suite
	storage *memory.Storage
	broker  *pubsub.MemoryBroker
	service *Service
	ctx     context.Context
}

func TestCounterSuite(t *testing.T) {
	suite.Run(t, new(CounterSuite))
}

func (s *CounterSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.broker = pubsub.NewMemoryBroker(logger)
	s.service = New(s.storage, s.broker, logger)
	s.ctx = context.Background()
}

func (s *CounterSuite) TestTotal_EmptyStoreReportsFloor() {
	total, err := s.service.Total(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor), total)
}

func (s *CounterSuite) TestTotal_ClampsLowStoredValue() {
	s.Require().NoError(s.storage.SetResolvedRounds(s.ctx, 5))

	total, err := s.service.Total(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor), total)
}

func (s *CounterSuite) TestTotal_FloorValuePassesThrough() {
	s.Require().NoError(s.storage.SetResolvedRounds(s.ctx, Floor))

	total, err := s.service.Total(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor), total)
}

func (s *CounterSuite) TestTotal_HighValuePassesThrough() {
	s.Require().NoError(s.storage.SetResolvedRounds(s.ctx, 12))

	total, err := s.service.Total(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(12), total)
}

func (s *CounterSuite) TestRecordResolvedRound_PinsFloorOnFirstRound() {
	value, err := s.service.RecordResolvedRound(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor), value)

	// the clamp is persisted so subsequent increments climb from the floor
	stored, err := s.storage.GetResolvedRounds(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor), stored)
}

func (s *CounterSuite) TestRecordResolvedRound_ClimbsFromFloor() {
	s.Require().NoError(s.storage.SetResolvedRounds(s.ctx, Floor))

	value, err := s.service.RecordResolvedRound(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(Floor+1), value)
}

func (s *CounterSuite) TestRecordResolvedRound_BroadcastsTally() {
	var updates []model.CounterUpdatedPayload
	_, err := s.broker.Subscribe(s.ctx, model.GlobalChannel, func(env pubsub.Envelope) {
		if env.Event != model.EventCounterUpdated {
			return
		}
		var p model.CounterUpdatedPayload
		s.Require().NoError(json.Unmarshal(env.Payload, &p))
		updates = append(updates, p)
	})
	s.Require().NoError(err)

	s.Require().NoError(s.storage.SetResolvedRounds(s.ctx, 20))
	_, err = s.service.RecordResolvedRound(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(updates, 1)
	s.Equal(int64(21), updates[0].Total)
}
