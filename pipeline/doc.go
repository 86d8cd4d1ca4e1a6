// Package pipeline orchestrates the detect, parse and render stages over a
// single input and classifies every failure into a stable error taxonomy.
//
// The pipeline holds the registries, the format detector and the sandbox
// pool; each job flows Received → Detecting → Parsing → Rendering →
// Completed, and any failure surfaces as a *Error carrying the stage it
// occurred in and a Kind callers can branch on without string matching.
// There are no automatic retries. Partial results are flagged explicitly
// and never conflated with success.
package pipeline
