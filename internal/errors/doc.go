// Package errors provides coded, structured errors for the Loom runtime.
//
// Every runtime failure that can reach application code carries a stable
// code (e.g. "E101") that maps to a category, a short message and a longer
// explanation. Codes are grouped by range:
//   - E001-E019: reactive graph (cycles, disposed atoms)
//   - E020-E039: scheduler and loop
//   - E100-E139: component tree (render errors, lifecycle, plugins)
//   - E140-E159: configuration
//   - E160-E179: CLI
//
// # Usage
//
//	err := errors.New("E103").Wrap(cause).WithDetail("component Counter failed in willStart")
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E103: Render failed
//	//
//	//   component Counter failed in willStart
//
// Errors implement Unwrap, so errors.Is works against both the code
// template (via Is) and the wrapped cause.
package errors
