package db

import _ "embed"

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// progressRowID is the single progress row; the app has one learner.
const progressRowID = 1
