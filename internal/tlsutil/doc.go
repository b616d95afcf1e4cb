// Package tlsutil provides the hardened TLS configuration shared by
// the HTTP server and outbound clients: TLS 1.2+ with AEAD cipher
// suites only.
package tlsutil
