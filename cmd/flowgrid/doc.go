// Command flowgrid validates, runs and resumes layered workflows from the
// command line. DAG files are JSON or YAML; configuration follows the
// config package precedence (defaults, file, FLOWGRID_ env vars).
package main
