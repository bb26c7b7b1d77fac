// Package tools defines the tool contract the agent loop dispatches through.
//
// Includes:
//   - ToolSpec: name, description, JSON Schema of the arguments.
//   - Tool: a spec plus an implementation taking a structured argument map.
//   - Func[T]: typed tool built from a Go handler; arguments are validated against
//     the reflected schema before they are decoded into T.
//   - Registry: name -> Tool, fixed once the loop starts.
//   - calculate and add: the demonstration capabilities.
package tools
