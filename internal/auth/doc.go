// Package auth provides session-based authentication for the JSON API.
//
// Sessions are stored in the application's SQLite database via scs.
// The login endpoint is rate limited per IP+username, mutating requests
// are CSRF protected, and role checks back the admin-only routes.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>   # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h            # Session duration
//	AUTH_BCRYPT_COST=12                  # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true             # HTTPS-only cookies
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(userService, sm)
//	router.Use(sm.SessionLoadSave(), mw.Handler())
//
// Extract the user in handlers:
//
//	user := auth.CurrentUser(c) // nil when unauthenticated
package auth
