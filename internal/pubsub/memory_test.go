package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/testutil"
)

type MemoryBrokerSuite struct {
	suite.Suite
	broker *MemoryBroker
	ctx    context.Context
}

func TestMemoryBrokerSuite(t *testing.T) {
	suite.Run(t, new(MemoryBrokerSuite))
}

func (s *MemoryBrokerSuite) SetupTest() {
	s.broker = NewMemoryBroker(testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *MemoryBrokerSuite) TestPublish_FansOutToAllSubscribers() {
	var first, second []Envelope
	_, err := s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) { first = append(first, env) })
	s.Require().NoError(err)
	_, err = s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) { second = append(second, env) })
	s.Require().NoError(err)

	s.Require().NoError(s.broker.Publish(s.ctx, "room-1", model.EventJoin,
		model.JoinPayload{Role: model.RoleInitiator}))

	s.Require().Len(first, 1)
	s.Require().Len(second, 1)
	s.Equal(model.EventJoin, first[0].Event)

	var p model.JoinPayload
	s.Require().NoError(json.Unmarshal(first[0].Payload, &p))
	s.Equal(model.RoleInitiator, p.Role)
}

func (s *MemoryBrokerSuite) TestPublish_ChannelsAreIsolated() {
	var got []Envelope
	_, err := s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) { got = append(got, env) })
	s.Require().NoError(err)

	s.Require().NoError(s.broker.Publish(s.ctx, "room-2", model.EventJoin,
		model.JoinPayload{Role: model.RoleInitiator}))

	s.Empty(got)
}

func (s *MemoryBrokerSuite) TestPublish_NoSubscribersIsNotAnError() {
	s.Require().NoError(s.broker.Publish(s.ctx, "room-1", model.EventJoin,
		model.JoinPayload{Role: model.RoleInitiator}))
}

func (s *MemoryBrokerSuite) TestSubscribe_HandlerMayPublishReentrantly() {
	var echoed []Envelope
	_, err := s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) {
		if env.Event == model.EventJoin {
			s.Require().NoError(s.broker.Publish(s.ctx, "room-1", model.EventReady,
				model.ReadyPayload{Config: model.ParticipantConfig{DisplayName: "ana", Role: model.RoleInitiator}}))
		}
	})
	s.Require().NoError(err)
	_, err = s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) {
		if env.Event == model.EventReady {
			echoed = append(echoed, env)
		}
	})
	s.Require().NoError(err)

	s.Require().NoError(s.broker.Publish(s.ctx, "room-1", model.EventJoin,
		model.JoinPayload{Role: model.RoleChallenger}))

	s.Len(echoed, 1)
}

func (s *MemoryBrokerSuite) TestClose_StopsDeliveryAndRetiresChannel() {
	var got []Envelope
	sub, err := s.broker.Subscribe(s.ctx, "room-1", func(env Envelope) { got = append(got, env) })
	s.Require().NoError(err)
	s.Equal(1, s.broker.SubscriberCount("room-1"))

	s.Require().NoError(sub.Close())
	s.Equal(0, s.broker.SubscriberCount("room-1"))

	s.Require().NoError(s.broker.Publish(s.ctx, "room-1", model.EventJoin,
		model.JoinPayload{Role: model.RoleInitiator}))
	s.Empty(got)
}
