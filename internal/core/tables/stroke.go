package tables

import "github.com/JonMunkholm/fmed-ingest/internal/core"

func init() {
	registerStroke()
}

// The stroke dataset carries an id column, but records are numbered by
// position like the diabetes set.
func registerStroke() {
	info := core.VariantInfo{
		Variant:     core.VariantStroke,
		Keyword:     "stroke",
		Label:       "Stroke",
		IDPrefix:    "ST",
		Partition:   3,
		LastName:    "Stroke",
		DateOfBirth: core.MustDate("1975-01-01"),
		Medications: "Neurological medications as prescribed",
	}
	gender := GenderRule{Column: "gender", IsMale: textual, AbsentIsMale: true}

	core.Register(core.MappingDefinition{
		Info: info,
		FieldSpecs: []core.FieldSpec{
			{Name: "gender", Required: true},
			{Name: "age", Required: true},
			{Name: "hypertension", Required: true},
		},
		BuildRecord: func(row []string, idx core.HeaderIndex, seq int) core.PatientRecord {
			id := identifier(row, idx, "", seq)
			return core.PatientRecord{
				PatientID:   patientID(info.IDPrefix, id),
				FirstName:   core.PatientPrefix + id,
				LastName:    info.LastName,
				DateOfBirth: info.DateOfBirth,
				Gender:      gender.Apply(row, idx),
				MedicalHistory: history(info.Label, row, idx,
					riskFactor{Label: "Age", Column: "age"},
					riskFactor{Label: "Hypertension", Column: "hypertension"},
				),
				Allergies:          core.NoneKnown,
				CurrentMedications: info.Medications,
				Partition:          info.Partition,
			}
		},
	})
}
