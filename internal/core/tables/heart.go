package tables

import "github.com/JonMunkholm/fmed-ingest/internal/core"

func init() {
	registerHeartDisease()
}

func registerHeartDisease() {
	info := core.VariantInfo{
		Variant:     core.VariantHeartDisease,
		Keyword:     "heart-disease",
		Label:       "Heart disease",
		IDPrefix:    "HD",
		Partition:   1,
		LastName:    "Heart_Disease",
		DateOfBirth: core.MustDate("1980-01-01"),
		Medications: "Cardiac medications as prescribed",
	}
	gender := GenderRule{Column: "sex", IsMale: coded, AbsentIsMale: true}

	core.Register(core.MappingDefinition{
		Info: info,
		FieldSpecs: []core.FieldSpec{
			{Name: "id"},
			{Name: "sex", Required: true},
			{Name: "age", Required: true},
			{Name: "cp", Required: true},
		},
		BuildRecord: func(row []string, idx core.HeaderIndex, seq int) core.PatientRecord {
			id := identifier(row, idx, "id", seq)
			return core.PatientRecord{
				PatientID:   patientID(info.IDPrefix, id),
				FirstName:   core.PatientPrefix + id,
				LastName:    info.LastName,
				DateOfBirth: info.DateOfBirth,
				Gender:      gender.Apply(row, idx),
				MedicalHistory: history(info.Label, row, idx,
					riskFactor{Label: "Age", Column: "age"},
					riskFactor{Label: "Chest pain type", Column: "cp"},
				),
				Allergies:          core.NoneKnown,
				CurrentMedications: info.Medications,
				Partition:          info.Partition,
			}
		},
	})
}
