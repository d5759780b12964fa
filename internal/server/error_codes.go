package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeInvalidJSON      = 1001
	ErrCodeRequestTooLarge  = 1002
	ErrCodeInvalidQuery     = 1003
	ErrCodeInvalidID        = 1004
	ErrCodeInvalidElement   = 1005
	ErrCodeInvalidPath      = 1006
	ErrCodeInvalidRarity    = 1007
	ErrCodeInvalidSlot      = 1008
	ErrCodeMissingRequired  = 1009
	ErrCodeInvalidAbility   = 1010
	ErrCodeInvalidStat      = 1011
	ErrCodeInvalidTeam      = 1012
	ErrCodeInvalidFileKey   = 1013
	ErrCodeInvalidMediaType = 1014

	// Domain state (2xxx)
	ErrCodeNotFound          = 2000
	ErrCodeCharacterNotFound = 2001
	ErrCodeAbilityNotFound   = 2002
	ErrCodeLightconeNotFound = 2003
	ErrCodeRelicNotFound     = 2004
	ErrCodeTeamNotFound      = 2005
	ErrCodeStatNotFound      = 2006
	ErrCodeUserNotFound      = 2007
	ErrCodeFileNotFound      = 2008
	ErrCodeConflict          = 2102
	ErrCodeUserExists        = 2103

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeBlobFailure    = 4003
	ErrCodeNotImplemented = 4005
)

type statusDefault struct {
	name string
	code int
}

// statusDefaults names errors that carry no explicit apiError code.
var statusDefaults = map[int]statusDefault{
	400: {"invalid_argument", ErrCodeInvalidArgument},
	401: {"unauthorized", ErrCodeUnauthorized},
	403: {"forbidden", ErrCodeForbidden},
	404: {"not_found", ErrCodeNotFound},
	409: {"conflict", ErrCodeConflict},
	413: {"request_too_large", ErrCodeRequestTooLarge},
	415: {"unsupported_media_type", ErrCodeInvalidMediaType},
	429: {"resource_exhausted", ErrCodeResourceExhausted},
	500: {"internal", ErrCodeInternal},
	501: {"not_implemented", ErrCodeNotImplemented},
}
