// Package http is the web surface: file upload and management, manual
// processing runs, statistics downloads and a websocket status feed.
package http
