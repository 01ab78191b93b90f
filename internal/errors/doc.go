// Package errors provides coded, structured errors for the fibers engine.
//
// Every failure the engine reports carries a stable code (e.g., "E101")
// that maps to a registered category, message and explanation. Builder
// methods attach context such as the component that produced a bad tree.
//
// # Error Categories
//
//   - render: malformed element trees, hook misuse
//   - commit: host tree invariant violations (fatal)
//   - host: foreign nodes handed to a bridge
//   - scheduler: idle loop lifecycle
//   - protocol: mutation frame decoding
//   - config: configuration loading and validation
//
// # Usage
//
//	err := errors.New("E101").
//	    WithComponent("TodoList").
//	    WithDetail("child 2 has type chan int")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Malformed element description
//	//
//	//   in component TodoList
//	//
//	//   child 2 has type chan int
package errors
