// Package session provides session management for hex tactics matches.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation
//   - Session lifecycle management
//   - Session persistence to JSON files or SQLite
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// service.Session holds one match engine together with its creation options
// and access times. SessionPersistence stores sessions as engine snapshots;
// FilePersistence writes one JSON file per session and SQLPersistence writes
// rows through store.DB, archiving the turn log alongside.
//
// Session Identifiers:
//
// Generated IDs are the first 8 hex characters of a random UUID. Callers may
// pick their own IDs made of letters, digits, dashes and underscores. Lookups
// are case-insensitive.
//
// Concurrency:
//
// The manager is safe for concurrent use. Each session embeds a mutex that
// callers hold while touching its engine; Save and UpdateLastAccessed expect
// that lock to be held already.
//
// Usage:
//
//	manager := session.NewManager(contentManager,
//		session.WithPersistence(persistence),
//		session.WithLogger(logger))
//
//	// Create a new session on a campaign
//	sess, err := manager.Create("", service.CreateOptions{Campaign: "goblin_war", Class: "Ranger"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sessionID)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory; persisted copies are
// restored on the next Get.
package session
