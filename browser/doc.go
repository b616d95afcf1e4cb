// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package browser drives a single Chromium instance over the Chrome DevTools
Protocol.

A Session owns the browser process, an ordered list of tabs, and an
optional current-frame override. It exposes the capability surface the rest
of the service builds on: navigation, JS evaluation, raw mouse and keyboard
input, screenshots, cookies, dialogs, network emulation, and PDF printing.
Higher layers never talk to chromedp directly.

The session is intentionally lock-free: the service hosts one logical
automation workflow and sequences page operations at the HTTP layer.
*/
package browser
