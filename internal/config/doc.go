// Package config defines the format-agnostic configuration model of a
// session, along with the Loader interface for reading it from various
// sources.
//
// Concrete loaders, such as the HCL one, live in separate packages.
package config
