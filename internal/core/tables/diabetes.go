package tables

import "github.com/JonMunkholm/fmed-ingest/internal/core"

func init() {
	registerDiabetes()
}

func registerDiabetes() {
	info := core.VariantInfo{
		Variant:     core.VariantDiabetes,
		Keyword:     "diabetes",
		Label:       "Diabetes",
		IDPrefix:    "DB",
		Partition:   2,
		LastName:    "Diabetes",
		DateOfBirth: core.MustDate("1985-01-01"),
		Medications: "Diabetes medications as prescribed",
	}
	gender := GenderRule{Column: "Gender", IsMale: textual, AbsentIsMale: true}

	core.Register(core.MappingDefinition{
		Info: info,
		FieldSpecs: []core.FieldSpec{
			{Name: "Gender"},
			{Name: "Age", Required: true},
			{Name: "BMI", Required: true},
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
					riskFactor{Label: "Age", Column: "Age"},
					riskFactor{Label: "BMI", Column: "BMI"},
				),
				Allergies:          core.NoneKnown,
				CurrentMedications: info.Medications,
				Partition:          info.Partition,
			}
		},
	})
}
