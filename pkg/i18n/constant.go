package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_PERMISSION_DENIED = "error.permission.denied"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_EXIST             = "error.exist"

	ERROR_INVALID_PERMISSION        = "error.role.invalid_permission"
	ERROR_OWNER_ROLE_IMMUTABLE      = "error.role.owner_immutable"
	ERROR_BUILTIN_ROLE_READONLY     = "error.role.builtin_readonly"
	ERROR_BUILTIN_ROLE_UNDELETABLE  = "error.role.builtin_undeletable"
	ERROR_FALLBACK_ROLE_MISSING     = "error.role.fallback_missing"
	ERROR_OWNER_MEMBER_IMMUTABLE    = "error.member.owner_immutable"
	ERROR_MEMBER_NOT_FOUND          = "error.member.notfound"
	ERROR_ALREADY_INVITED           = "error.already_invited"
	ERROR_INVITATION_NOT_RESENDABLE = "error.invitation.not_resendable"
	ERROR_INVITATION_EMAIL_REQUIRED = "error.invitation.email_required"
	ERROR_EMAIL_NOT_MATCH           = "error.email_not_match"
	ERROR_EMAIL_NOT_REGISTERED      = "error.email_not_registered"

	ERROR_INVALID_TOKEN = "error.invalid.token"
)
