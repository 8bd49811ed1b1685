// Package core runs CSV parse and import jobs on top of the parser.
//
// It holds no transport code; the web server and the csvmap command both
// drive it through [Service].
//
// # Schemas
//
// A schema names a CSV layout and how its rows become values. Typed schemas
// are Go structs registered at init time with [Define] and [Register]:
//
//	core.Register(core.Define(core.Definition[Person]{
//	    Info:   core.SchemaInfo{Key: "people", Group: "Builtin", Label: "People"},
//	    Mapper: buildPersonMapper,
//	}))
//
// Declarative schemas come from JSON or YAML specs via [FromSpec]; their
// items are schema.Records. Schemas with a table and copy columns can be
// imported into PostgreSQL.
//
// # Jobs
//
// Every [Service.Parse] or [Service.Import] call is one job. Jobs hold a
// slot of the [JobLimiter] for their whole run, are bounded by the upload
// timeout and size limit, and produce a [Report]: counters, the mapped
// items and the rows that failed with their reasons. Invalid rows never
// fail a job. Imports stream valid rows into a single COPY and skip the
// rest.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Each category has a code prefix for support reference:
//
//   - CFG: mapping and parser configuration
//   - SCH: schemas and header rows
//   - SRC: reading the input
//   - JOB: limiter, cancellation and timeouts
//   - MAP: row mapping
//   - DB: import target and database errors
package core
