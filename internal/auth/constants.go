package auth

const (
	ContextKeyOperator = "operator"
	ContextKeyClaims   = "operator_claims"

	headerAuthorization = "Authorization"
	bearerScheme        = "bearer"
	authHeaderParts     = 2
	tokenIssuer         = "cps-console"
)

const (
	msgMissingAuthorization    = "缺少访问令牌"
	msgInvalidOrExpiredToken   = "访问令牌无效或已过期"
	msgInvalidCredentials      = "用户名或密码错误"
	msgTokenIssueFailed        = "签发访问令牌失败"
	msgOperatorRequired        = "operator name is required"
	msgSecretRequired          = "jwt secret is required"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
)
