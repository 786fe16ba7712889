// Package core provides the business logic of the staffing admin console.
//
// The package owns posts (postos), personnel (colaboradores) and occurrences
// (ocorrências) along with the bulk import of posts from spreadsheets. It is
// independent of any transport layer; persistence is reached through the
// [Store] interface so handlers and tests share it unchanged.
//
// # Post Identifiers
//
// A post is identified by NAME-number-sequence-contract-year, uppercased with
// whitespace runs turned into hyphens. See [PostIdentifier]. Personnel rows
// carry a second, lowercase reference built by [PersonnelPostRef]; the two
// formats are intentionally different and are not reconciled.
//
// # Import
//
// Uploaded files are read into [Row] values by [Ingest], which picks the
// semicolon text parser for .csv names and the spreadsheet reader otherwise.
// Each row is mapped through an [AliasTable] and upserted by a [Reconciler]:
//
//  1. Rows are processed strictly one at a time, in file order
//  2. A row failing mapping or the remote upsert counts as rejected
//  3. A rejection never stops the batch
//  4. The run returns {Accepted, Rejected}; every row lands in exactly one
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - DB001-DB007: Database errors (constraints, connectivity)
//   - VAL000-VAL003: Validation errors (form fields, dates, numbers)
//   - FILE001-FILE005: File errors (size, format, empty file)
//   - IMP001-IMP003: Import run errors (busy, cancelled, timeout)
//   - REC001: Record not found
package core
