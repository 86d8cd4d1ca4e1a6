// Package parser defines the contract format parsers implement and the
// immutable registry used to dispatch input to them.
//
// A Registry is built once at startup from the available parser
// implementations and is read-only afterwards, so concurrent lookups need
// no locking. Dispatch walks format candidates in confidence order and asks
// each registered parser to re-validate the actual bytes before committing
// to it.
package parser
