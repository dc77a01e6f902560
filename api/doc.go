// Package api provides HTTP REST API handlers for hex tactics matches.
//
// The api package implements:
//   - Session management endpoints
//   - Player actions and turn progression
//   - Range, path and line of sight queries
//   - Level, card and campaign listing
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({id, level, campaign, class, seed, skirmish})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Match Operations:
//   - GET /api/sessions/{id}/state - Current match state
//   - POST /api/sessions/{id}/move - {"to": {"row": 5, "column": 7}}
//   - POST /api/sessions/{id}/attack - {"attack": "melee", "target": {"row": 4, "column": 7}}
//   - POST /api/sessions/{id}/equip - {"card_id": "rusty_sword"}
//   - POST /api/sessions/{id}/craft - {"card_id": "bent_pipe", "materials": ["tin_can", "scrap_metal"]}
//   - POST /api/sessions/{id}/end-turn - {"fast_forward": true}
//   - POST /api/sessions/{id}/auto-turn
//   - POST /api/sessions/{id}/tick - {"elapsed_ms": 16}
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/log - Turn log (?page=1&limit=20&order=desc)
//
// Queries:
//   - GET /api/sessions/{id}/movement-range
//   - GET /api/sessions/{id}/attack-range?attack=melee
//   - GET /api/sessions/{id}/unit-ranges?at=row,column
//   - GET /api/sessions/{id}/path?from=row,column&to=row,column
//   - GET /api/sessions/{id}/line-of-sight?from=row,column&to=row,column
//
// Content:
//   - GET /api/levels, GET /api/levels/{name}, PUT /api/levels/{name}
//   - GET /api/cards
//   - GET /api/campaigns
//
// WebSocket:
//   - GET /ws?session={id} - State updates for one session
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "session not found: session not found",
//	  "code": 404
//	}
//
// A refused action (moving twice, attacking an empty cell) is not an error:
// it answers 200 with "success": false and the reason in "message".
package api
