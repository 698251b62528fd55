// Package validation builds ValidationErrors for constructor and Config
// arguments, so every package reports bad input the same way.
//
// ValidateNotNil also rejects typed nils, such as a nil *Chain passed as an
// estimator interface.
package validation
