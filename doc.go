// Package backend provides the Picstream API server.

// This module contains the HTTP backend for the Picstream photo feed.
// The API documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Identity token validation and user resolution
// - internal/storage: Post image storage (S3) operations
// - internal/database: Database connection, migrations and stats views
// - internal/cache: Redis-backed feed page caching
// - internal/middleware: HTTP middleware (request IDs, rate limiting, metrics)
// - internal/metrics: Prometheus instrumentation
// - internal/telemetry: OpenTelemetry tracing setup
// - internal/seed: Development data seeding

// See the individual package documentation for detailed API reference.
package backend
