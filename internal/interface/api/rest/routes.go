package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth     = RouteApiV1 + "/auth"
	RouteLogin    = RouteAuth + "/login"
	RouteRegister = RouteAuth + "/register"
	RouteMe       = RouteAuth + "/me"

	// files
	RouteFiles        = RouteApiV1 + "/files"
	RouteFileUpload   = RouteFiles + "/upload"
	RouteFile         = RouteFiles + "/:id"
	RouteFileDownload = RouteFile + "/download"

	// admin
	RouteAdmin             = RouteApiV1 + "/admin"
	RouteAdminStats        = RouteAdmin + "/cleanup-stats"
	RouteAdminForceCleanup = RouteAdmin + "/force-cleanup"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
