// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

// Package api groups the HTTP surface of the automation service.
//
// Every automation endpoint is a POST under /automation and answers the
// uniform ActionResult envelope, success or failure alike:
//
//	POST /automation/navigate_to        {"url": "https://example.com"}
//	POST /automation/click_element      {"index": 3}
//	POST /automation/request_intervention
//	  {"intervention_type": "captcha", "message": "please solve"}
//
// Health and liveness live at GET /health, /healthz, /ready and
// /version; GET /live/ws streams page frames over a websocket.
// Authentication is an X-API-Key header, or a bearer token for the
// operator endpoints when JWT auth is enabled.
package api
