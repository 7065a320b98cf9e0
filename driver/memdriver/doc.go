// Package memdriver is an in-memory driver.Session for tests.
//
// Store executes the CQL dialect rendered by package cql: table and index
// creation, upserting INSERTs, SELECT with equality, range, map-entry and
// analyzer conditions, ANN ordering in both syntaxes, DELETE and TRUNCATE.
// Recorder captures the statements a session receives.
package memdriver
