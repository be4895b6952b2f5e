// Package errors provides structured, actionable error messages for the
// toastsim command.
//
// Errors carry a code, a plain-language explanation, the location in the
// config or scenario file that caused them and a hint on how to fix it.
//
// # Error Codes
//
//   - T100-T119: configuration files
//   - T200-T219: scenario files
//   - T300-T319: command execution
//
// # Usage
//
//	err := errors.New("T201").
//	    WithLocation("demo.yaml", 12, 5).
//	    WithSuggestion("Use one of add, update, remove, dismiss, hover, leave or remove_all")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR T201: Invalid step
//	//
//	//   demo.yaml:12:5
//	//
//	//     10 │   - at: 1s
//	//     11 │     add: {id: saved, content: Saved}
//	//   → 12 │   - at: 2s
//	//        │     ^
//	//     13 │     hover: {id: saved}
//	//     14 │     leave: {id: saved}
//	//
//	//   Every step needs exactly one action.
//	//
//	//   Hint: Use one of add, update, remove, dismiss, hover, leave or remove_all
package errors
