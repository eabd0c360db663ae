// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration, with a SQLite driver
// available for development and tests.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. The driver
// is selected by configuration; connection pooling and ping verification are applied
// for MySQL, while SQLite is constrained to a single connection so that in-memory
// databases behave predictably.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema. The cleanup feature
// uses them to verify that the images, faces and people tables carry the columns
// the reconciliation job relies on before touching any data.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "images")
package database
