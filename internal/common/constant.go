package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the access token in the Authorization header.
	BearerScheme = "Bearer"

	// RoleAdmin is the privileged role sentinel.
	RoleAdmin = "Admin"

	// Access token claim names. Clients read them too, so they live here.
	ClaimName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	ClaimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	ClaimRole           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)
