// Package db embeds the catalog schema applied by the services and seed tool.
package db

import _ "embed"

// Schema contains the DDL for the products table.
//
//go:embed migrations/001_schema.sql
var Schema string
