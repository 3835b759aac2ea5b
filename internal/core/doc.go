// Package core provides the schema mapping for the medical dataset ingest.
//
// This package has no storage or transport dependencies: it turns a staged
// dataset directory into a slice of [PatientRecord] values that a loader
// can persist.
//
// # Variants
//
// Each supported dataset shape is a [Variant]. Mappings are registered at init
// time using [Register], one [MappingDefinition] per variant:
//
//	core.Register(core.MappingDefinition{
//	    Info: core.VariantInfo{Variant: core.VariantStroke, Keyword: "stroke", IDPrefix: "ST", Partition: 3},
//	    FieldSpecs: []core.FieldSpec{{Name: "age", Required: true}},
//	    BuildRecord: buildStrokeRecord,
//	})
//
// [Classify] resolves a dataset's logical name to a variant by keyword; names
// matching nothing are [VariantUnknown] and are never mapped.
//
// # Mapping
//
// [Mapper.Map] picks the first CSV file in the staged directory, strips a
// UTF-8 BOM, replaces invalid UTF-8, and maps every non-blank row in source
// order. Missing columns and blank cells become the "Unknown" placeholder;
// the only diagnostic is a warning listing absent required columns.
package core
