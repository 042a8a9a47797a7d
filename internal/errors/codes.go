package errors

// Error codes returned in the "error" field of every failed response.
// Format: CATEGORY_DETAIL. Clients map these to their own copy.

const (
	// Auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthEmailNotConfirmed  = "AUTH_EMAIL_NOT_CONFIRMED"
	AuthLinkInvalid        = "AUTH_LINK_INVALID"
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"
	AuthOAuthDisabled      = "AUTH_OAUTH_DISABLED"
	AuthOAuthFailed        = "AUTH_OAUTH_FAILED"

	// Authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Catalog and checkout
	ProductNotFound     = "PRODUCT_NOT_FOUND"
	ProductUnavailable  = "PRODUCT_UNAVAILABLE"
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartEmpty           = "CART_EMPTY"
	WishlistNotFound    = "WISHLIST_ITEM_NOT_FOUND"
	OrderNotFound       = "ORDER_NOT_FOUND"
	OrderTotalMismatch  = "ORDER_TOTAL_MISMATCH"
	OrderInvalidStatus  = "ORDER_INVALID_STATUS"
	ProfileIncomplete   = "PROFILE_INCOMPLETE"
	ProfileNotFound     = "PROFILE_NOT_FOUND"
	AddressNotFound     = "ADDRESS_NOT_FOUND"
	NotificationMissing = "NOTIFICATION_NOT_FOUND"

	// Uploads and contact
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	ContactUnavailable    = "CONTACT_UNAVAILABLE"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
