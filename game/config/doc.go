// Package config provides content management for hex tactics matches.
//
// The config package handles:
//   - Loading cards, decks, levels and campaigns from JSON or YAML files
//   - Content validation through the engine loaders
//   - Default level selection
//   - Content discovery and listing
//
// Content Layout:
//
// A content directory holds one subdirectory per kind:
//
//	content/
//	  cards/      goblin.json, ogre.yaml, ...
//	  decks/      junk.json
//	  levels/     default.json, forest.yaml
//	  campaigns/  main.json
//
// Content is addressed by id, the file name without directory or extension,
// so "goblin", "goblin.json" and "cards/goblin.json" resolve to the same card.
//
// Usage:
//
//	manager, err := config.NewManager("content")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Manager implements engine.Library
//	e, _ := engine.New(engine.Options{Library: manager})
//	e.StartLevel(manager.DefaultLevel())
//
//	// List available levels
//	levels, err := manager.ListLevels()
//
// Validation:
//
// Check loads every file and reports what failed, including dangling card,
// deck and level references.
package config
