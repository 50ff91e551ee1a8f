// Package harness runs resolve/extract conformance scenarios.
//
// A scenario compiles layers of CUE component definitions into a fresh
// in-memory store and then executes steps that resolve, extract and
// rebuild components across those layers.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: customize_account
//	description: "A customization hides getX and inserts reset"
//	layers:
//	  - name: base
//	    file: account.cue
//	  - name: custom
//	    source: |
//	      component: "demo.Account": {
//	        mode: "modification"
//	        behavior: getX: visibility: "hidden"
//	      }
//	steps:
//	  - op: resolve
//	    component: demo.Account
//	    base: base
//	    delta: custom
//	    into: derived
//	    expect:
//	      clean: true
//	      signatures: ["getX()"]
//	      behaviors:
//	        "getX()": { flags: "insert public no-monitor instance concrete derivable current local hidden" }
//
// # Step Ops
//
//   - resolve: applies the delta reference to the base reference
//   - extract: computes the delta between the derived and base references
//   - rebuild: replays a chain of layers through the store's memoized resolve
//   - same: requires every reference to hold identical content
//
// A reference is a layer name, or "layer:component" when the component
// differs from the step's.
//
// # Deterministic Testing
//
// UIDs come from a sequence restarted per scenario and each scenario owns
// its store, so traces are identical across runs and suitable for golden
// comparison. RunAll executes independent scenario files concurrently.
package harness
