package constants

// Centralized constants for headers, routes and reason codes.
const (
	// HTTP headers
	HeaderPlayerID = "X-Player-Id"
	HeaderInitData = "X-Init-Data"

	// Gin context keys
	CtxPlayerID = "playerID"
)

// Routes used by the backend router
const (
	RouteAPIPrefix = "/api"

	RouteExpeditionStart  = "/expedition/start"
	RouteExpeditionChoice = "/expedition/choice"
	RouteExpeditionState  = "/expedition/state"

	RouteQueueJoin  = "/arena/queue/join"
	RouteQueueLeave = "/arena/queue/leave"
	RouteQueueMe    = "/arena/queue/me"

	RouteArenaStatus = "/arena/status"
	RouteArenaLadder = "/arena/ladder"

	RouteDuelActive    = "/arena/duel/active"
	RouteDuelState     = "/arena/duel/state"
	RouteDuelAttack    = "/arena/duel/attack"
	RouteDuelHeal      = "/arena/duel/heal"
	RouteDuelSurrender = "/arena/duel/surrender"

	RouteDailyLogin = "/daily-login"
)

// Common JSON response keys
const (
	JSONKeyError = "error"
)

// Machine-readable reason codes returned to clients. Clients branch on
// these, so they are part of the API surface and must stay stable.
const (
	ErrMissingIdentity    = "MISSING_IDENTITY"
	ErrInvalidIdentity    = "INVALID_IDENTITY"
	ErrInvalidRequest     = "INVALID_REQUEST"
	ErrInvalidResource    = "INVALID_RESOURCE"
	ErrNoActiveExpedition = "NO_ACTIVE_EXPEDITION"
	ErrInvalidChoice      = "INVALID_CHOICE"
	ErrBusy               = "BUSY"
	ErrNotYourTurn        = "NOT_YOUR_TURN"
	ErrNotParticipant     = "NOT_PARTICIPANT"
	ErrDuelFinished       = "DUEL_FINISHED"
	ErrStateMissing       = "STATE_MISSING"
	ErrDuelNotFound       = "DUEL_NOT_FOUND"
	ErrInternal           = "INTERNAL_ERROR"
)

// Logging field names
const (
	LogFieldPlayerID = "player_id"
	LogFieldDuelID   = "duel_id"
	LogFieldAreaKey  = "area_key"
	LogFieldAddr     = "addr"
	LogFieldItemCode = "item_code"
)
