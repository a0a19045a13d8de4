package location

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		address string
		want    Type
	}{
		{"Lagos University Teaching Hospital, Idi-Araba", TypeHospital},
		{"Ikeja City Mall, Obafemi Awolowo Way", TypeMall},
		{"Civic Centre Tower, Ozumba Mbadiwe Ave", TypeOffice},
		{"Kings College, Catholic Mission St", TypeSchool},
		{"12 Admiralty Way, Lekki Phase 1", TypeResidential},
		{"", TypeResidential},
		{"SHOPPING PLAZA", TypeMall},
		{"Reddington Clinic", TypeHospital},
		{"Smallholder Farm Road", TypeResidential},
		{"Lagoon Medical, Obalende", TypeHospital},
		{"St Nicholas Medical Services", TypeHospital},
		{"Business District, Ikoyi", TypeOffice},
		{"Civic Business Centre", TypeOffice},
		{"Corporate Drive, Victoria Island", TypeOffice},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			if got := Classify(tt.address); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.address, got, tt.want)
			}
		})
	}
}

func TestClassify_FirstRuleWins(t *testing.T) {
	// Hospital is checked before office.
	if got := Classify("Medical Office Tower hospital wing"); got != TypeHospital {
		t.Errorf("Classify() = %s, want hospital", got)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve(TypeSchool, "Ikeja City Mall"); got != TypeSchool {
		t.Errorf("Resolve() with explicit type = %s, want school", got)
	}
	if got := Resolve("warehouse", "Ikeja City Mall"); got != TypeMall {
		t.Errorf("Resolve() with unknown type = %s, want mall", got)
	}
}
