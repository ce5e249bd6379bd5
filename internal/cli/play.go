package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/dependencies/random"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/session"
)

// wsBroker adapts one room websocket connection to the broker
// interface. The connection already scopes everything to a single
// channel, so the channel argument is ignored on both sides.
type wsBroker struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[int]pubsub.Handler
	nextID   int
}

func newWSBroker(conn *websocket.Conn) *wsBroker {
	b := &wsBroker{
		conn:     conn,
		handlers: make(map[int]pubsub.Handler),
	}
	go b.readLoop()
	return b
}

func (b *wsBroker) readLoop() {
	for {
		var env pubsub.Envelope
		if err := b.conn.ReadJSON(&env); err != nil {
			return
		}
		b.mu.Lock()
		handlers := make([]pubsub.Handler, 0, len(b.handlers))
		for _, h := range b.handlers {
			handlers = append(handlers, h)
		}
		b.mu.Unlock()
		for _, h := range handlers {
			h(env)
		}
	}
}

func (b *wsBroker) Publish(ctx context.Context, channel string, event model.EventType, payload any) error {
	env, err := pubsub.Marshal(event, payload)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(env)
}

func (b *wsBroker) Subscribe(ctx context.Context, channel string, h pubsub.Handler) (pubsub.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return &wsSubscription{broker: b, id: id}, nil
}

type wsSubscription struct {
	broker *wsBroker
	id     int
}

func (s *wsSubscription) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	delete(s.broker.handlers, s.id)
	return nil
}

func newPlayCmd() *cobra.Command {
	var (
		name       string
		skin       string
		golden     bool
		profileTok string
		teamID     string
		botAfter   time.Duration
		randMatch  bool
	)

	cmd := &cobra.Command{
		Use:   "play <room-id> <role>",
		Short: "Join a room interactively and duel over the websocket gateway",
		Long: `play joins a room as the given role (initiator or challenger) and
drives a full session: handshake, optional bot fallback, clash,
rematch and chat.

Commands on stdin: clash, rematch, react <emoji>, chat <text>, quit.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			role := model.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("invalid role %q: must be initiator or challenger", args[1])
			}

			wsURL := strings.Replace(client.BaseURL(), "http", "ws", 1) +
				fmt.Sprintf("/ws/rooms/%s", roomID)
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect failed: %w", err)
			}
			defer func() { _ = conn.Close() }()

			return runPlay(cmd.Context(), newWSBroker(conn), roomID, role, playOptions{
				name:       name,
				skin:       skin,
				golden:     golden,
				profileTok: profileTok,
				teamID:     teamID,
				botAfter:   botAfter,
				randMatch:  randMatch,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&skin, "skin", "red", "Egg skin")
	cmd.Flags().BoolVar(&golden, "golden", false, "Claim a held golden egg")
	cmd.Flags().StringVar(&profileTok, "profile", "", "Profile token credited with the outcome")
	cmd.Flags().StringVar(&teamID, "team", "", "Team id credited with a win")
	cmd.Flags().DurationVar(&botAfter, "bot-after", session.SearchTimeout, "Matchmaker wait before a bot opponent is substituted")
	cmd.Flags().BoolVar(&randMatch, "random", false, "Random-opponent intent: arm the fallback matchmaker")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

type playOptions struct {
	name       string
	skin       string
	golden     bool
	profileTok string
	teamID     string
	botAfter   time.Duration
	randMatch  bool
}

func runPlay(ctx context.Context, broker pubsub.Broker, roomID model.RoomID, role model.Role, opts playOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := model.ParticipantConfig{
		DisplayName:  opts.name,
		Role:         role,
		Appearance:   model.Appearance{Skin: model.Skin(opts.skin)},
		GoldenEgg:    opts.golden,
		ProfileToken: model.ProfileToken(opts.profileTok),
		TeamID:       model.TeamID(opts.teamID),
	}

	var sess *session.Session
	sess = session.New(broker, clock.New(), random.New(), roomID, role, session.Callbacks{
		OnOpponentJoined: func(cfg model.ParticipantConfig) {
			fmt.Printf("opponent: %s\n", cfg.DisplayName)
		},
		OnResult: func(res session.Result) {
			if res.Won {
				fmt.Println("your egg held, you win")
			} else {
				fmt.Println("your egg cracked, you lose")
			}
		},
		OnRematchAgreed: func() {
			fmt.Println("rematch agreed, new round")
			// agreed rematches clear both configs; re-select ours
			// without the golden claim, which is spent or lapsed
			next := cfg
			next.GoldenEgg = false
			if err := sess.ChooseConfig(ctx, next); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
			}
		},
		OnOpponentLeft: func(displayName string) {
			fmt.Printf("%s left the room\n", displayName)
		},
		OnReaction: func(p model.ReactionPayload) {
			fmt.Printf("%s reacts %s\n", p.From, p.Emoji)
		},
		OnChat: func(p model.ChatMessagePayload) {
			fmt.Printf("%s: %s\n", p.From, p.Text)
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sess.SetSearchTimeout(opts.botAfter)

	if err := sess.ChooseConfig(ctx, cfg); err != nil {
		return err
	}
	if err := sess.Join(ctx); err != nil {
		return err
	}
	if opts.randMatch {
		sess.StartSearch(time.Now())
		go sess.RunTicker(ctx)
	}

	fmt.Fprintf(os.Stderr, "joined %s as %s (clash | rematch | react <emoji> | chat <text> | quit)\n", roomID, role)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		verb, rest, _ := strings.Cut(line, " ")

		var err error
		switch verb {
		case "":
			continue
		case "clash":
			err = sess.RequestClash(ctx)
		case "rematch":
			err = sess.RequestRematch(ctx)
		case "react":
			err = sess.SendReaction(ctx, rest)
		case "chat":
			err = sess.SendChat(ctx, rest)
		case "quit":
			return sess.Leave(ctx)
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
			continue
		}
		if err != nil {
			if errors.Is(err, model.ErrOpponentLeft) {
				fmt.Fprintln(os.Stderr, "opponent is gone; this room is done")
				continue
			}
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
	return sess.Leave(ctx)
}
