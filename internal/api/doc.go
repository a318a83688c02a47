// Package api implements the HTTP contract of the rental backend.
//
// The backend is an opaque collaborator: the conversational agent's
// reasoning lives server-side, and this package only speaks the fixed
// request/response shapes (chat turns, document uploads, the verify call,
// booking list and status transitions, and raw media fetches).
//
// All methods take a context and return wrapped errors; non-2xx responses
// surface as *APIError so callers can show the backend's detail string
// when one exists.
package api
