/*
Package config loads flowgrid configuration.

Precedence: built-in defaults, then an optional YAML file, then
FLOWGRID_-prefixed environment variables (e.g. FLOWGRID_ENGINE_MAX_PARALLEL,
FLOWGRID_STORE_BACKEND). Sections cover the engine, the record store, the
logger and the metrics collector.
*/
package config
