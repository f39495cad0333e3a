// Package seed loads reference data (staff accounts, a doctor, wards and
// beds, drugs, a sample patient) through the domain services.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultFixture []byte

type Fixture struct {
	Users    []User    `yaml:"users"`
	Doctors  []Doctor  `yaml:"doctors"`
	Wards    []Ward    `yaml:"wards"`
	Drugs    []Drug    `yaml:"drugs"`
	Patients []Patient `yaml:"patients"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Doctor struct {
	Name              string  `yaml:"name"`
	Email             string  `yaml:"email"`
	Password          string  `yaml:"password"`
	LicenseNumber     string  `yaml:"license_number"`
	Specialization    string  `yaml:"specialization"`
	Qualification     string  `yaml:"qualification"`
	Experience        int     `yaml:"experience"`
	ConsultationFee   float64 `yaml:"consultation_fee"`
	AvailableFrom     string  `yaml:"available_from"`
	AvailableTo       string  `yaml:"available_to"`
	Department        string  `yaml:"department"`
	MaxPatientsPerDay int     `yaml:"max_patients_per_day"`
	Phone             string  `yaml:"phone"`
	DoctorEmail       string  `yaml:"doctor_email"`
	WorkingDays       []int   `yaml:"working_days"`
}

// Ward describes a ward and its beds. Beds are numbered with the first
// letter of the ward name and a two digit index: G01, G02, ...
type Ward struct {
	Name        string  `yaml:"name"`
	WardType    string  `yaml:"ward_type"`
	Beds        int     `yaml:"beds"`
	BedType     string  `yaml:"bed_type"`
	PricePerDay float64 `yaml:"price_per_day"`
}

type Drug struct {
	Name         string  `yaml:"name"`
	GenericName  string  `yaml:"generic_name"`
	Manufacturer string  `yaml:"manufacturer"`
	DosageForm   string  `yaml:"dosage_form"`
	Strength     string  `yaml:"strength"`
	Price        float64 `yaml:"price"`
	CurrentStock int     `yaml:"current_stock"`
	MinStock     *int    `yaml:"min_stock"`
	MaxStock     *int    `yaml:"max_stock"`
	ExpiryDate   string  `yaml:"expiry_date"`
}

type Patient struct {
	FirstName        string `yaml:"first_name"`
	LastName         string `yaml:"last_name"`
	DateOfBirth      string `yaml:"date_of_birth"`
	Gender           string `yaml:"gender"`
	PhoneNumber      string `yaml:"phone_number"`
	Email            string `yaml:"email"`
	Address          string `yaml:"address"`
	EmergencyContact string `yaml:"emergency_contact"`
	EmergencyPhone   string `yaml:"emergency_phone"`
	BloodGroup       string `yaml:"blood_group"`
	Allergies        string `yaml:"allergies"`
}

// Parse decodes a YAML fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed fixture: %w", err)
	}
	return &f, nil
}

// Default returns the embedded fixture.
func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed fixture: %w", err)
	}
	return Parse(data)
}

// BedNumber returns the number of the i-th bed (1-based) in a ward.
func BedNumber(wardName string, i int) string {
	initial := "B"
	for _, r := range wardName {
		initial = string(r)
		break
	}
	return fmt.Sprintf("%s%02d", initial, i)
}
