// Package service provides the business logic layer for hex tactics matches.
//
// The service package implements:
//   - Multi-session match management
//   - Level, card and campaign listing
//   - Player actions with log-derived events
//   - Turn progression, either ticked or fast-forwarded
//   - Paged turn log retrieval
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level match operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager serves content and doubles as the engine's card library.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the match engine. Each session owns one engine; every call locks the
// session, acts, and persists it afterwards.
//
// Usage:
//
//	configMgr, _ := config.NewManager("content")
//	sessionMgr := session.NewManager(configMgr)
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	// Create a new session
//	info, err := gameService.CreateSession(ctx, service.CreateOptions{Level: "default"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Move, then let the other factions act
//	res, err := gameService.Move(ctx, info.ID, hex.Coord{Row: 5, Col: 7})
//	end, err := gameService.EndTurn(ctx, info.ID, true)
//
// Events:
//
// Every action reports the log lines it produced as "log" events, followed by
// a "victory" or "game_over" event once the match is decided.
package service
