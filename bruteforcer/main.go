// Command bruteforcer plays a match against a running server over the REST
// API. Each turn it attacks what it can, closes in on the nearest hostile and
// ends the turn, retrying from a reset until it wins or runs out of attempts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/service"
)

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// call sends body as JSON and decodes the reply into result.
func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) CreateSession(ctx context.Context, opts service.CreateOptions) (*engine.MatchState, error) {
	var info service.SessionInfo
	if err := c.call(ctx, http.MethodPost, "/api/sessions", opts, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return info.State, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.MatchState, error) {
	var state engine.MatchState
	if err := c.call(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.MatchState, error) {
	var resp struct {
		Message string             `json:"message"`
		State   *engine.MatchState `json:"state"`
	}
	if err := c.call(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) MovementRange(ctx context.Context) ([]hex.Coord, error) {
	var resp service.RangeResponse
	if err := c.call(ctx, http.MethodGet, c.sessionPath("/movement-range"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cells, nil
}

func (c *Client) AttackRange(ctx context.Context, attack string) ([]hex.Coord, error) {
	var resp service.RangeResponse
	path := c.sessionPath("/attack-range") + "?attack=" + url.QueryEscape(attack)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cells, nil
}

// Move and Attack return the server's answer even when it refused the action.
func (c *Client) Move(ctx context.Context, to hex.Coord) (*service.ActionResponse, error) {
	var resp service.ActionResponse
	body := map[string]hex.Coord{"to": to}
	if err := c.call(ctx, http.MethodPost, c.sessionPath("/move"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Attack(ctx context.Context, attack string, target hex.Coord) (*service.ActionResponse, error) {
	var resp service.ActionResponse
	body := map[string]interface{}{"attack": attack, "target": target}
	if err := c.call(ctx, http.MethodPost, c.sessionPath("/attack"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) EndTurn(ctx context.Context) (*engine.MatchState, error) {
	var resp service.EndTurnResponse
	body := map[string]bool{"fast_forward": true}
	if err := c.call(ctx, http.MethodPost, c.sessionPath("/end-turn"), body, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// Bot plays one session with a strategy.
type Bot struct {
	client   *Client
	strategy *SystematicStrategy
	logger   *zap.Logger
	delay    time.Duration
}

// tryAttack asks for the projectile range only when no melee target exists.
func (b *Bot) tryAttack(ctx context.Context, state *engine.MatchState) (*engine.MatchState, error) {
	if state.Player.ActionUsed {
		return state, nil
	}
	var shots []hex.Coord
	if _, _, ok := b.strategy.PlanAttack(state, nil); !ok && state.Player.ProjectileAttack.Damage > 0 {
		var err error
		if shots, err = b.client.AttackRange(ctx, "projectile"); err != nil {
			return nil, err
		}
	}
	attack, target, ok := b.strategy.PlanAttack(state, shots)
	if !ok {
		return state, nil
	}
	resp, err := b.client.Attack(ctx, attack, target)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		b.logger.Debug("attack refused", zap.String("target", target.String()), zap.String("message", resp.Message))
		return state, nil
	}
	b.logger.Debug(resp.Message)
	return resp.State, nil
}

// PlayTurn attacks, moves, attacks again if it has not yet and ends the turn.
func (b *Bot) PlayTurn(ctx context.Context, state *engine.MatchState) (*engine.MatchState, error) {
	state, err := b.tryAttack(ctx, state)
	if err != nil || state.Victory || state.GameOver {
		return state, err
	}

	moves, err := b.client.MovementRange(ctx)
	if err != nil {
		return nil, err
	}
	if to, ok := b.strategy.PlanMove(state, moves); ok {
		resp, err := b.client.Move(ctx, to)
		if err != nil {
			return nil, err
		}
		if resp.Success {
			state = resp.State
		} else {
			b.logger.Debug("move refused", zap.String("to", to.String()), zap.String("message", resp.Message))
		}
	}

	if state, err = b.tryAttack(ctx, state); err != nil || state.Victory || state.GameOver {
		return state, err
	}
	return b.client.EndTurn(ctx)
}

// Play runs turns until the match ends, maxTurns pass or the hunt stalls.
func (b *Bot) Play(ctx context.Context, state *engine.MatchState, maxTurns int) (*engine.MatchState, int, error) {
	turns := 0
	for !state.Victory && !state.GameOver && turns < maxTurns && !b.strategy.Stuck() {
		next, err := b.PlayTurn(ctx, state)
		if err != nil {
			return state, turns, err
		}
		state = next
		turns++

		b.logger.Debug("turn played",
			zap.Int("turn", state.Turn),
			zap.String("position", state.Player.Unit.Position.String()),
			zap.Int("hp", state.Player.Unit.HP),
			zap.Int("hostiles", len(hostiles(state))))

		if b.delay > 0 {
			select {
			case <-ctx.Done():
				return state, turns, ctx.Err()
			case <-time.After(b.delay):
			}
		}
	}
	return state, turns, nil
}

// run creates or resumes a session and plays up to maxAttempts matches.
// It reports whether any attempt won.
func run(ctx context.Context, cmd *cli.Command, logger *zap.Logger) (bool, error) {
	client := NewClient(cmd.String("url"))
	logger.Info("connecting to game server", zap.String("url", client.baseURL))

	var state *engine.MatchState
	var err error
	if id := cmd.String("continue"); id != "" {
		client.sessionID = id
		if state, err = client.GetState(ctx); err != nil {
			return false, fmt.Errorf("resume session %s: %w", id, err)
		}
		logger.Info("session resumed", zap.String("session", id))
	} else {
		state, err = client.CreateSession(ctx, service.CreateOptions{
			Level:    cmd.String("level"),
			Campaign: cmd.String("campaign"),
			Class:    cmd.String("class"),
			Seed:     cmd.Int64("seed"),
		})
		if err != nil {
			return false, err
		}
		logger.Info("session created", zap.String("session", client.sessionID), zap.String("level", state.LevelID))
	}

	bot := &Bot{
		client:   client,
		strategy: NewSystematicStrategy(state),
		logger:   logger,
		delay:    time.Duration(cmd.Int("delay")) * time.Millisecond,
	}

	maxAttempts := cmd.Int("max-attempts")
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 || cmd.String("continue") != "" {
			if state, err = client.Reset(ctx); err != nil {
				return false, err
			}
		}
		bot.strategy.Reset(state)

		final, turns, err := bot.Play(ctx, state, cmd.Int("max-turns"))
		if err != nil {
			return false, err
		}
		logger.Info("attempt finished",
			zap.Int("attempt", attempt),
			zap.Int("turns", turns),
			zap.Int("hp", final.Player.Unit.HP),
			zap.Int("hostiles", len(hostiles(final))),
			zap.Bool("victory", final.Victory))

		if final.Victory {
			logger.Info("🎉 VICTORY!", zap.String("session", client.sessionID), zap.Int("attempt", attempt))
			return true, nil
		}
	}
	logger.Warn("❌ failed to win", zap.String("session", client.sessionID), zap.Int("attempts", maxAttempts))
	return false, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Play a match over the REST API until it is won",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "level", Usage: "Level to play (server default when empty)"},
			&cli.StringFlag{Name: "campaign", Usage: "Campaign to play instead of a level"},
			&cli.StringFlag{Name: "class", Value: "Warrior", Usage: "Player class"},
			&cli.Int64Flag{Name: "seed", Usage: "Match seed"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.IntFlag{Name: "max-turns", Value: 100, Usage: "Maximum turns per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 10, Usage: "Maximum attempts before giving up"},
			&cli.IntFlag{Name: "delay", Usage: "Delay between turns in milliseconds"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := zap.NewDevelopmentConfig()
			if !cmd.Bool("verbose") {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return err
			}
			defer logger.Sync()

			won, err := run(ctx, cmd, logger)
			if err != nil {
				return err
			}
			if !won {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
