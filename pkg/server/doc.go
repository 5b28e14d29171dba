// Package server serves the clinic owner's user table.
//
// A GET of /{locale}/dashboard/owner renders the whole page on the server
// from the URL query, with the table in its loading state. The page then
// loads a small script that opens a WebSocket to /live. Each socket gets a
// Session: an event loop owning one table controller. The browser sends
// intents (sort, page, size, filter, search, refresh, navigate) and the
// session answers with frames:
//
//	{"type":"url","query":"page=2&limit=20","mode":"replace"}
//	{"type":"render","table":"<div id=...>","toolbar":"<form ...>","status":"succeeded"}
//	{"type":"error","code":"C300","message":"..."}
//
// A url frame rewrites the address bar without a reload. A render frame
// replaces the table fragment, and the toolbar unless the user is typing
// in it.
//
// Both routes sit behind an auth.Gate that admits the configured roles.
package server
