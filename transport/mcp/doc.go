// Package mcp provides a Model Context Protocol server for hex tactics matches.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions that proxy to the REST API
//   - Text renderings of the hex map and combat log
//
// MCP Tools:
//
// Sessions:
//   - create_session, list_sessions, get_session, delete_session
//
// Match:
//   - match_state: Current state with a rendered map
//   - move, attack, equip, craft: Player actions
//   - end_turn, auto_turn: Turn progression
//   - reset_match: Restart the level
//   - turn_log: Paginated combat log
//
// Queries:
//   - movement_range, attack_range, unit_ranges, find_path, line_of_sight
//
// Content:
//   - list_levels, list_cards, list_campaigns, game_instructions
//
// The client holds no match state. Every tool is a single REST call against
// the server given to NewClient, so any number of agents can share a server.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
