// Package errors provides structured, actionable error messages for the
// observe tooling (configuration, the inspector and the CLI).
//
// # Error Categories
//
//   - document: Path and value errors against an observed document
//   - config: Invalid observe.json / observe.yaml
//   - cli: Command line failures
//
// # Error Codes
//
// Each error has a unique code (e.g., "R001") that maps to a short message,
// a detailed explanation and, for document errors, the HTTP status the
// inspector answers with.
//
// # Usage
//
//	err := errors.New("R001").
//	    WithPath("grade.total").
//	    WithSuggestion("GET /state to list the document")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Path not found
//	//
//	//   at grade.total
//	//
//	//   No property exists at the requested path.
//	//
//	//   Hint: GET /state to list the document
package errors
