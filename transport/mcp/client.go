package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/unit"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Hex Tactics",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Hex Tactics - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Defeat every hostile unit on the hex grid. Each turn you may move once and act once,
then end your turn so allied, neutral and hostile units can act.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session / delete_session: manage matches
- match_state: Current map, units and turn phase
- move: Move the player to a cell inside its movement range
- attack: Melee or projectile attack on a target cell
- equip / craft: Use cards from the inventory
- draw_card: Draw from the card hex at a cell without moving there
- transform_unit: Switch a two-state unit to its other state
- end_turn: Hand the turn to the other factions (fast_forward runs them to completion)
- auto_turn: Let the engine play one player turn
- reset_match: Restart the current level
- turn_log: Paginated combat log
- movement_range / attack_range / unit_ranges / find_path / line_of_sight: planning queries
- list_levels / list_cards / list_campaigns: available content
- game_instructions: Full rules

Coordinates are {row, column} on an odd-q offset hex grid.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new match. Pick a level or a campaign; leave both empty for the default level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID (see list_levels)",
				},
				"campaign": map[string]interface{}{
					"type":        "string",
					"description": "Campaign ID (see list_campaigns)",
				},
				"class": map[string]interface{}{
					"type":        "string",
					"description": "Player class",
					"enum":        []string{"Warrior", "Ranger", "Tank"},
				},
				"seed": intProp("Random seed for reproducible matches"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details about a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_session",
		Description: "Delete a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleDeleteSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "match_state",
		Description: "Get the current match state with a map of the grid",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleMatchState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player to a cell. The cell must be inside the movement range and the player may move once per turn.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"row":        intProp("Destination row"),
				"column":     intProp("Destination column"),
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attack",
		Description: "Attack the unit on a cell with the melee or projectile attack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"attack": map[string]interface{}{
					"type":        "string",
					"description": "'melee', 'projectile' or the attack's name",
				},
				"row":    intProp("Target row"),
				"column": intProp("Target column"),
			},
			Required: []string{"session_id", "attack", "row", "column"},
		},
	}, c.handleAttack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "equip",
		Description: "Equip a weapon card from the inventory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"card_id": map[string]interface{}{
					"type":        "string",
					"description": "Card ID of the weapon",
				},
			},
			Required: []string{"session_id", "card_id"},
		},
	}, c.handleEquip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "craft",
		Description: "Craft an item from a blueprint card, consuming the listed materials",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"card_id": map[string]interface{}{
					"type":        "string",
					"description": "Card ID of the blueprint",
				},
				"materials": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Card IDs of the materials",
				},
			},
			Required: []string{"session_id", "card_id"},
		},
	}, c.handleCraft)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw_card",
		Description: "Draw from the card hex at a cell: a card, a random deck card or a linked level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"row":        intProp("Card hex row"),
				"column":     intProp("Card hex column"),
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleDrawCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "transform_unit",
		Description: "Switch the unit on a cell to its second state, or back when its card allows it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"row":        intProp("Unit row"),
				"column":     intProp("Unit column"),
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleTransformUnit)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_turn",
		Description: "End the player's turn. With fast_forward the other factions play until it is the player's turn again.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"fast_forward": map[string]interface{}{
					"type":        "boolean",
					"description": "Run the other phases to completion (default true)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleEndTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_turn",
		Description: "Let the engine play one player turn: attack if possible, otherwise approach the nearest hostile",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleAutoTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_match",
		Description: "Restart the current level",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_log",
		Description: "Get the combat log for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page":       intProp("Page number"),
				"limit":      intProp("Items per page"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnLog)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "movement_range",
		Description: "List the cells the player can reach this turn",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleMovementRange)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attack_range",
		Description: "List the cells an attack can hit from the player's position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"attack": map[string]interface{}{
					"type":        "string",
					"description": "'melee', 'projectile' or the attack's name",
				},
			},
			Required: []string{"session_id", "attack"},
		},
	}, c.handleAttackRange)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "unit_ranges",
		Description: "Show the movement, melee and projectile ranges of the unit on a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"row":        intProp("Unit row"),
				"column":     intProp("Unit column"),
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleUnitRanges)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest walkable path between two cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id":  sessionProp(),
				"from_row":    intProp("Start row"),
				"from_column": intProp("Start column"),
				"to_row":      intProp("Goal row"),
				"to_column":   intProp("Goal column"),
			},
			Required: []string{"session_id", "from_row", "from_column", "to_row", "to_column"},
		},
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "line_of_sight",
		Description: "Check whether a projectile fired from one cell reaches another",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id":  sessionProp(),
				"from_row":    intProp("Origin row"),
				"from_column": intProp("Origin column"),
				"to_row":      intProp("Target row"),
				"to_column":   intProp("Target column"),
			},
			Required: []string{"session_id", "from_row", "from_column", "to_row", "to_column"},
		},
	}, c.handleLineOfSight)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_cards",
		Description: "List available cards",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListCards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_campaigns",
		Description: "List available campaigns",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListCampaigns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

func coordArg(args map[string]interface{}, rowKey, colKey string) (hex.Coord, error) {
	row, ok := intArg(args, rowKey)
	if !ok {
		return hex.Coord{}, fmt.Errorf("%s is required", rowKey)
	}
	col, ok := intArg(args, colKey)
	if !ok {
		return hex.Coord{}, fmt.Errorf("%s is required", colKey)
	}
	return hex.Coord{Row: row, Col: col}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func coordQuery(c hex.Coord) string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateOptions{}
	body.Level, _ = args["level"].(string)
	body.Campaign, _ = args["campaign"].(string)
	body.Class, _ = args["class"].(string)
	if seed, ok := intArg(args, "seed"); ok {
		body.Seed = int64(seed)
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatSessionInfo(&session))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Level: %s, Class: %s, Created: %s)\n",
			s.ID, s.LevelID, s.Class, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	if err := c.apiCall(ctx, "DELETE", sessionPath(sessionID, ""), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session %s deleted", sessionID)), nil
}

func (c *Client) handleMatchState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.MatchState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMatchState(&state)), nil
}

// action posts a player action and renders the result
func (c *Client) action(ctx context.Context, sessionID, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResponse
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, path), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	to, err := coordArg(args, "row", "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.action(ctx, sessionID, "/move", map[string]interface{}{"to": to})
}

func (c *Client) handleAttack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	attack, _ := args["attack"].(string)

	target, err := coordArg(args, "row", "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.action(ctx, sessionID, "/attack", map[string]interface{}{
		"attack": attack,
		"target": target,
	})
}

func (c *Client) handleEquip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cardID, _ := args["card_id"].(string)

	return c.action(ctx, sessionID, "/equip", map[string]interface{}{"card_id": cardID})
}

func (c *Client) handleCraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cardID, _ := args["card_id"].(string)
	raw, _ := args["materials"].([]interface{})

	materials := make([]string, 0, len(raw))
	for _, m := range raw {
		if s, ok := m.(string); ok {
			materials = append(materials, s)
		}
	}

	return c.action(ctx, sessionID, "/craft", map[string]interface{}{
		"card_id":   cardID,
		"materials": materials,
	})
}

func (c *Client) handleDrawCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	at, err := coordArg(args, "row", "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.action(ctx, sessionID, "/draw", map[string]interface{}{"at": at})
}

func (c *Client) handleTransformUnit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	at, err := coordArg(args, "row", "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.action(ctx, sessionID, "/transform", map[string]interface{}{"at": at})
}

func (c *Client) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	fastForward := true
	if v, ok := args["fast_forward"].(bool); ok {
		fastForward = v
	}

	var result service.EndTurnResponse
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/end-turn"), map[string]bool{"fast_forward": fastForward}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✅ %s\n", result.Message)
	} else {
		fmt.Fprintf(&b, "❌ %s\n", result.Message)
	}
	if result.Steps > 0 {
		fmt.Fprintf(&b, "Other factions took %d steps.\n", result.Steps)
	}
	b.WriteString(formatEvents(result.Events))
	b.WriteString("\n")
	b.WriteString(formatMatchState(result.State))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleAutoTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.action(ctx, sessionID, "/auto-turn", nil)
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string             `json:"message"`
		State   *engine.MatchState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatMatchState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleTurnLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/log")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var log service.LogResponse
	if err := c.apiCall(ctx, "GET", path, nil, &log); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLog(&log)), nil
}

func (c *Client) handleMovementRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.RangeResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/movement-range"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Reachable cells: " + formatCoords(result.Cells)), nil
}

func (c *Client) handleAttackRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	attack, _ := args["attack"].(string)

	var result service.RangeResponse
	path := sessionPath(sessionID, "/attack-range?attack="+url.QueryEscape(attack))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s range: %s", result.Kind, formatCoords(result.Cells))), nil
}

func (c *Client) handleUnitRanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	at, err := coordArg(args, "row", "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.UnitRangesResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/unit-ranges?at="+coordQuery(at)), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Unit at %s\nMovement: %s\nMelee: %s\nProjectile: %s\n",
		result.Position,
		formatCoords(result.Movement),
		formatCoords(result.Melee),
		formatCoords(result.Projectile))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	from, err := coordArg(args, "from_row", "from_column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := coordArg(args, "to_row", "to_column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PathResponse
	path := sessionPath(sessionID, "/path?from="+coordQuery(from)+"&to="+coordQuery(to))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Found {
		return mcp.NewToolResultText(fmt.Sprintf("No path from %s to %s", from, to)), nil
	}
	text := fmt.Sprintf("Path (%d steps): %s", result.Length, formatCoords(result.Path))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleLineOfSight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	from, err := coordArg(args, "from_row", "from_column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := coordArg(args, "to_row", "to_column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.LineOfSightResponse
	path := sessionPath(sessionID, "/line-of-sight?from="+coordQuery(from)+"&to="+coordQuery(to))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Visible {
		return mcp.NewToolResultText(fmt.Sprintf("%s can see %s", from, to)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s cannot see %s", from, to)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Levels:\n\n"
	for _, level := range levels {
		result += fmt.Sprintf("• %s (%s)\n  Grid: %dx%d, Units: %d, Card hexes: %d\n",
			level.LevelID, level.Name, level.Rows, level.Columns, level.Units, level.CardHexes)
		if level.Description != "" {
			result += "  " + level.Description + "\n"
		}
		result += "\n"
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var cards []service.CardInfo
	if err := c.apiCall(ctx, "GET", "/api/cards", nil, &cards); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Cards:\n\n"
	for _, card := range cards {
		result += fmt.Sprintf("• %s: %s [%s]\n", card.CardID, card.Name, card.CardType)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListCampaigns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var campaigns []service.CampaignInfo
	if err := c.apiCall(ctx, "GET", "/api/campaigns", nil, &campaigns); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Campaigns:\n\n"
	for _, campaign := range campaigns {
		result += fmt.Sprintf("• %s (%s): %s\n", campaign.CampaignID, campaign.Name, strings.Join(campaign.Levels, " → "))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Hex Tactics - Complete Instructions

OBJECTIVE:
Defeat every hostile unit on the level. In a campaign, clearing a level loads the next one.

THE GRID:
• Cells are addressed as {row, column} on an odd-q offset hex layout
• Odd columns sit half a cell lower than even columns
• Every cell has six neighbours; distance is counted in hex steps
• Blocked cells (#) cannot be entered and stop projectiles

TURN ORDER:
1. Player phase: move once and take one action (attack, equip or craft)
2. Allied units act
3. Neutral units act
4. Hostile units act
End your turn with end_turn; fast_forward plays the other phases at once.

MOVEMENT:
• The movement range is a flood fill of your movement points around blocked and occupied cells
• Use movement_range before moving and find_path to plan longer routes

COMBAT:
• Melee hits any adjacent unit
• Projectiles fly in a straight hex line up to the projectile range and stop at the first obstacle
• line_of_sight tells you whether a shot reaches its target
• Units at 0 HP are removed immediately

CLASSES:
• Warrior: 100 HP, move 4, Kick (melee 6), Throw Rock (projectile 6, range 4)
• Ranger:  50 HP, move 5, Punch (melee 4), Sling (projectile 8, range 5)
• Tank:    150 HP, move 3, Head-butt (melee 8), Spit (projectile 4, range 3)

CARDS:
• Card-drawing hexes (?) give you a card when you step on them
• Weapon cards can be equipped to replace an attack
• Blueprints are crafted into new items from material cards

MAP LEGEND:
@ = Player
H = Hostile unit
N = Neutral unit
A = Allied unit
# = Blocked
? = Card-drawing hex
. = Open ground

STRATEGY TIPS:
• Check unit_ranges on a hostile before ending your turn next to it
• Ranged classes should keep a blocked cell between themselves and melee attackers
• Use auto_turn when you just want the match to move forward`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nLevel: %s\nClass: %s\nSeed: %d\n",
		session.ID, session.LevelID, session.Class, session.Seed)
	if session.CampaignID != "" {
		result += fmt.Sprintf("Campaign: %s\n", session.CampaignID)
	}
	result += fmt.Sprintf("Created: %s\nLast Accessed: %s\n",
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"))
	if session.State != nil {
		result += "\n" + formatMatchState(session.State)
	}
	return result
}

func formatActionResult(result *service.ActionResponse) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✅ %s\n", result.Message)
	} else {
		fmt.Fprintf(&b, "❌ %s\n", result.Message)
	}
	b.WriteString(formatEvents(result.Events))
	b.WriteString("\n")
	b.WriteString(formatMatchState(result.State))
	return b.String()
}

func formatEvents(events []service.GameEvent) string {
	var b strings.Builder
	for _, e := range events {
		switch e.Type {
		case "victory":
			fmt.Fprintf(&b, "🏆 %s\n", e.Message)
		case "game_over":
			fmt.Fprintf(&b, "💀 %s\n", e.Message)
		default:
			fmt.Fprintf(&b, "  • %s\n", e.Message)
		}
	}
	return b.String()
}

func formatMatchState(state *engine.MatchState) string {
	if state == nil {
		return "No state available\n"
	}

	var b strings.Builder
	name := state.LevelID
	if state.LevelName != "" {
		name = fmt.Sprintf("%s (%s)", state.LevelName, state.LevelID)
	}
	fmt.Fprintf(&b, "Level: %s\n", name)
	if state.CampaignID != "" {
		fmt.Fprintf(&b, "Campaign: %s, level %d\n", state.CampaignID, state.CampaignLevel+1)
	}
	if state.Objective != "" {
		fmt.Fprintf(&b, "Objective: %s\n", state.Objective)
	}
	fmt.Fprintf(&b, "Turn %d, phase: %s\n", state.Turn, state.Phase)

	p := state.Player
	fmt.Fprintf(&b, "Player (%s) at %s: %d/%d HP, move %d\n",
		p.Class, p.Unit.Position, p.Unit.HP, p.Unit.Active.MaxHP, p.Unit.Active.Movement)
	fmt.Fprintf(&b, "  Melee: %s (%d)  Projectile: %s (%d, range %d)\n",
		p.MeleeAttack.Name, p.MeleeAttack.Damage,
		p.ProjectileAttack.Name, p.ProjectileAttack.Damage, p.Unit.Active.ProjectileRange)
	fmt.Fprintf(&b, "  Moved: %t  Acted: %t\n", p.MovementUsed, p.ActionUsed)
	if len(p.Inventory) > 0 {
		items := make([]string, len(p.Inventory))
		for i, item := range p.Inventory {
			items[i] = item.CardID
		}
		fmt.Fprintf(&b, "  Inventory: %s\n", strings.Join(items, ", "))
	}

	if len(state.Units) > 0 {
		b.WriteString("\nUnits:\n")
		for _, u := range state.Units {
			fmt.Fprintf(&b, "  %s %s at %s: %d/%d HP (%s)\n",
				allegianceChar(u.Kind), u.Active.Name, u.Position, u.HP, u.Active.MaxHP, u.Kind)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGrid(state))

	if state.Victory {
		b.WriteString("\n🏆 VICTORY!\n")
	} else if state.GameOver {
		b.WriteString("\n💀 GAME OVER\n")
	}
	if state.LoadError != "" {
		fmt.Fprintf(&b, "\nLoad error: %s\n", state.LoadError)
	}
	return b.String()
}

func allegianceChar(a unit.Allegiance) string {
	switch a {
	case unit.Hostile:
		return "H"
	case unit.Neutral:
		return "N"
	case unit.Allied:
		return "A"
	case unit.PlayerAllegiance:
		return "@"
	}
	return "?"
}

// formatGrid renders the map row by row; odd columns are drawn on the
// half-line below their row.
func formatGrid(state *engine.MatchState) string {
	if state.Rows <= 0 || state.Cols <= 0 {
		return ""
	}

	cells := make(map[hex.Coord]string)
	for _, c := range state.Inaccessible {
		cells[c] = "#"
	}
	for _, ch := range state.CardHexes {
		cells[hex.Coord{Row: ch.Row, Col: ch.Column}] = "?"
	}
	for _, u := range state.Units {
		if u.Alive && u.Placed {
			cells[u.Position] = allegianceChar(u.Kind)
		}
	}
	cells[state.Player.Unit.Position] = "@"

	char := func(r, c int) string {
		if s, ok := cells[hex.Coord{Row: r, Col: c}]; ok {
			return s
		}
		return "."
	}

	var b strings.Builder
	b.WriteString("    ")
	for c := 0; c < state.Cols; c++ {
		fmt.Fprintf(&b, "%d", c%10)
	}
	b.WriteString("\n")
	for r := 0; r < state.Rows; r++ {
		even := make([]string, state.Cols)
		odd := make([]string, state.Cols)
		for c := 0; c < state.Cols; c++ {
			even[c], odd[c] = " ", " "
			if c%2 == 0 {
				even[c] = char(r, c)
			} else {
				odd[c] = char(r, c)
			}
		}
		fmt.Fprintf(&b, "%3d %s\n", r, strings.Join(even, ""))
		fmt.Fprintf(&b, "    %s\n", strings.Join(odd, ""))
	}
	return b.String()
}

func formatCoords(coords []hex.Coord) string {
	if len(coords) == 0 {
		return "(none)"
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func formatLog(log *service.LogResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn Log (page %d of %d, %d entries total):\n\n", log.Page, log.TotalPages, log.Total)
	for _, e := range log.Entries {
		fmt.Fprintf(&b, "#%d [turn %d, %s] %s\n", e.Seq, e.Turn, e.Phase, e.Message)
	}
	if log.HasNext {
		fmt.Fprintf(&b, "\nMore entries on page %d\n", log.Page+1)
	}
	return b.String()
}
