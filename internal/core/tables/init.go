// Package tables registers the dataset variant mappings with the core registry.
// Import this package to ensure all variants are registered.
package tables

// This file exists to provide a single import point.
// Each variant file uses init() to register its mapping.
