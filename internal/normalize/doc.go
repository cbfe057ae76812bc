// Package normalize turns noisy extracted field values into canonical ones.
//
// Every function here is pure: it never logs, never returns an error and
// degrades to a null result on input it cannot interpret.
package normalize
