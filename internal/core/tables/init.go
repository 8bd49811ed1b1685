// Package tables registers the built-in schemas with the core registry.
// Import it for side effects before looking schemas up.
//
// Typed schemas (people, transactions) are declared in Go. The remaining
// layouts are declarative specs embedded from specs/*.yaml.
package tables

func init() {
	registerNormalizers()
	registerPeople()
	registerTransactions()
	registerSpecs()
}
