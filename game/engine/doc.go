// Package engine ties the combat core to game content.
//
// The engine package implements a match on top of the grid and turn packages:
//   - Card loading and validation, including second states and weapons
//   - Level construction, the default arena and procedural skirmishes
//   - Card-drawing hexes, linked levels and crafting
//   - Campaign progression across levels
//   - Snapshots for persistence
//
// Core Types:
//
// The Engine interface defines the main contract for match operations,
// implemented by MatchEngine. Content arrives through a Library, implemented
// by config.Manager. MatchState is the view handed to clients and Snapshot is
// the persisted form.
//
// Usage:
//
//	e, err := engine.New(engine.Options{
//		Library: manager,
//		Class:   unit.Ranger,
//		Seed:    7,
//		Logger:  logger,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := e.StartCampaign("main"); err != nil {
//		// the default arena is running; the failure is in e.LoadError()
//	}
//
//	result := e.MovePlayer(hex.Coord{Row: 8, Col: 10})
//	e.EndTurn()
//	e.RunUntilPlayerTurn()
//
// Rules:
//
// The player moves and acts once per turn. Ending the turn runs the allied,
// neutral and hostile phases. After the hostile phase the level objective is
// checked; a met objective loads the next campaign level or ends the match in
// victory. The match is lost when the player's hp reaches zero.
package engine
