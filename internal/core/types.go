package core

import "time"

// Variant is the closed set of dataset shapes the mapper understands.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantHeartDisease
	VariantDiabetes
	VariantStroke
)

// String returns the keyword-style name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantHeartDisease:
		return "heart-disease"
	case VariantDiabetes:
		return "diabetes"
	case VariantStroke:
		return "stroke"
	default:
		return "unknown"
	}
}

// Partition identifies the hospital store a batch of records is written to.
type Partition int

// Gender is the binary enumeration stored on a patient record.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Placeholder values written when the source has nothing better.
const (
	Unknown       = "Unknown"
	NoneKnown     = "None known"
	PatientPrefix = "Patient_"
)

// PatientRecord is the normalized shape produced by every variant.
type PatientRecord struct {
	PatientID          string
	FirstName          string
	LastName           string
	DateOfBirth        time.Time
	Gender             Gender
	MedicalHistory     string
	Allergies          string
	CurrentMedications string
	Partition          Partition
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// FieldSpec names a source column a variant reads.
type FieldSpec struct {
	Name     string // Column header name, matched case-insensitively
	Required bool   // Logged as a warning when absent from the header
}

// VariantInfo contains the fixed per-variant values.
type VariantInfo struct {
	Variant     Variant
	Keyword     string    // Substring of the dataset name selecting this variant
	Label       string    // Display name: "Heart disease"
	IDPrefix    string    // Prefix for synthesized identifiers: "HD"
	Partition   Partition // Destination hospital
	LastName    string
	DateOfBirth time.Time
	Medications string
}

// BuildRecordFunc derives one record from a source row.
// seq is the 1-based position of the record within the current pass.
type BuildRecordFunc func(row []string, idx HeaderIndex, seq int) PatientRecord

// MappingDefinition contains everything needed to map one dataset variant.
type MappingDefinition struct {
	Info        VariantInfo
	FieldSpecs  []FieldSpec
	BuildRecord BuildRecordFunc
}

// MissingColumns returns the required field names absent from the header.
func (d MappingDefinition) MissingColumns(idx HeaderIndex) []string {
	var missing []string
	for _, spec := range d.FieldSpecs {
		if !spec.Required {
			continue
		}
		if _, ok := idx.Lookup(spec.Name); !ok {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}
