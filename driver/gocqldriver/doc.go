// Package gocqldriver adapts a gocql session to driver.Session.
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Keyspace = "app"
//	gs, err := cluster.CreateSession()
//	if err != nil {
//		return err
//	}
//	defer gs.Close()
//
//	tbl, err := cqltable.NewVectorTable(ctx, gocqldriver.New(gs), "docs",
//		cqltable.WithVectorDimension(768))
//
// gocql prepares and caches statements with bound values on first use, so
// Prepare only validates the text and returns a lightweight handle.
package gocqldriver
