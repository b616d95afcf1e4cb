// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package database manages the GORM connection pool behind the durable
intervention store: pool limits, periodic health checks, statistics and
transaction helpers with retry on transient failures.
*/
package database
