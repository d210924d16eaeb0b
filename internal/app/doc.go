// Package app contains the core application logic. It wires configuration,
// the function catalogue and the engine together and runs one session from
// an input stream to an output writer, decoupled from any specific
// entrypoint like a CLI.
package app
