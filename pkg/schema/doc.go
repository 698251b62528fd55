// Package schema describes the columns flowing through a pipeline.
//
// A Schema is the concrete description of real data. A Shape is what is known
// before any data is read; pipelines propagate Shapes through every stage to
// reject incompatible compositions before fitting anything. Requirements
// express what a stage needs from its input and are checked the same way
// against both, so a shape check fails exactly when the data check would.
package schema
