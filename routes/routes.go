package routes

// Routes package wires every endpoint of the listing radar service.
//
// Layout:
// - api.go: API routes (/v1/*)
// - web.go: Web routes (/, /docs, /status)
// - routes.go: this note
//
// Usage:
// routes.SetupAllRoutes(router, parseController, compareController, reviewController, adminController)
