// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package metrics provides Prometheus metric collection for the control
plane: HTTP traffic, browser actions, page snapshots, interventions and
the intervention store.

The Collector registers everything through promauto under a single
namespace, so wiring is one constructor call and a promhttp handler.
Action metrics are labelled by action name and outcome; coordinate
fallback retries are counted separately so selector drift on a target
site shows up as a trend rather than a mystery.
*/
package metrics
