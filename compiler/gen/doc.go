// Package gen turns an XML schema class graph into SQLAlchemy mapped
// dataclasses and the artifacts derived from the same relational model.
//
// # Architecture
//
// A generation run follows this flow:
//
//	class graph dump (.json, .yaml, .msgpack)
//	        ↓
//	   load.Class tree
//	        ↓
//	   Graph (resolved types, fields, relationships)
//	        ↓
//	   Target (dataclass, ddl, gostruct, graphql)
//	        ↓
//	   File set written under Config.Target
//
// # Key Types
//
//   - Graph: the resolved class graph of one run, with its Namer and
//     Filters
//   - Type: a class of the graph, addressed by its dot-joined FQName
//   - Field: an attribute of a type, inherited or declared
//   - Relationship: an inferred many-to-one or one-to-many link
//   - ForeignKey: the synthesized integer column of a many-to-one link
//   - Generator: runs the targets over one or more class graphs
//
// # Resolution
//
// Type references are resolved against the enclosing classes first,
// innermost scope out, then against any class whose path ends with the
// reference. A reference matching more than one class picks the first
// match in traversal order, unless strict resolution is enabled.
//
// # Error Handling
//
// The package reports structured errors:
//
//   - ResolutionError: a reference that matches no class
//   - ConfigError: a class graph shape that cannot be mapped
//   - OptionError: an invalid option value
//   - GenerationError: a target or file that failed to render
//
// Every error type matches its sentinel with errors.Is:
//
//	g, err := gen.NewGraph(cfg, classes)
//	if errors.Is(err, gen.ErrResolution) {
//	    // report the missing class
//	}
//
// # Configuration
//
// Configuration uses functional options:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./models"),
//	    gen.WithPackage("generated.models"),
//	    gen.WithStrictResolution(),
//	)
//	g, err := gen.NewGenerator(cfg, dataclass.New(), ddl.NewTarget("public"))
//	err = g.Generate(ctx, classes)
package gen
