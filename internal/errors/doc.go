// Package errors provides coded, actionable errors for reactiveurl tooling.
//
// Every error carries a code from the registry (e.g. "R101"), a category, a
// short message and optionally a longer explanation and a hint:
//
//	err := errors.New("R101").
//	    WithDetail(`line 3: unexpected token "}"`).
//	    WithSuggestion("Check reactiveurl.json for a trailing comma").
//	    Wrap(parseErr)
//
//	fmt.Print(err.Format())
//	// ERROR R101: Config file could not be parsed
//	//
//	//   line 3: unexpected token "}"
//	//
//	//   Hint: Check reactiveurl.json for a trailing comma
//
// The query, reactive and debounce packages never return errors; these codes
// cover configuration, query-string input, the CLI and the sync server.
package errors
