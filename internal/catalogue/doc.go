// Package catalogue provides the registry of invocable functions.
//
// The Registry maps the function names written in statements to dense
// numeric ids and back to the compiled Go implementations. Modules under
// modules/ add themselves through the Module interface, in the same way on
// every start, so ids are stable for a given module list.
//
// Registration happens before a session starts. Afterwards the Registry is
// only read and is safe to share between channel workers.
package catalogue
