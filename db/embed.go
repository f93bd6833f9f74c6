// Package db embeds the POS schema. RunMigrations applies it on every start,
// so each statement must be idempotent.
package db

import _ "embed"

// Schema creates the users, sessions, products, sales, expenses and payment
// link tables with their indexes.
//
//go:embed migrations/001_schema.sql
var Schema string
