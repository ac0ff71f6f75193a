package models

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Employee is a single employee record owned by an account.
// Optional fields are nil when absent; list fields are nil when absent.
type Employee struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Email     string    `json:"email" db:"email" validate:"required,email"`
	FullName  string    `json:"full_name" db:"full_name" validate:"required,max=200"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Identity
	EmployeeCode    *string `json:"employee_code,omitempty" db:"employee_code"`
	FirstName       *string `json:"first_name,omitempty" db:"first_name"`
	LastName        *string `json:"last_name,omitempty" db:"last_name"`
	PreferredName   *string `json:"preferred_name,omitempty" db:"preferred_name"`
	Gender          *string `json:"gender,omitempty" db:"gender"`
	DateOfBirth     *string `json:"date_of_birth,omitempty" db:"date_of_birth" kind:"date"`
	Nationality     *string `json:"nationality,omitempty" db:"nationality"`
	NRICFIN         *string `json:"nric_fin,omitempty" db:"nric_fin"`
	PassportNumber  *string `json:"passport_number,omitempty" db:"passport_number"`
	MaritalStatus   *string `json:"marital_status,omitempty" db:"marital_status"`
	Race            *string `json:"race,omitempty" db:"race"`
	Religion        *string `json:"religion,omitempty" db:"religion"`
	Phone           *string `json:"phone,omitempty" db:"phone"`
	PersonalEmail   *string `json:"personal_email,omitempty" db:"personal_email"`
	ProfilePhotoURL *string `json:"profile_photo_url,omitempty" db:"profile_photo_url"`

	// Employment
	Department       *string  `json:"department,omitempty" db:"department"`
	JobTitle         *string  `json:"job_title,omitempty" db:"job_title"`
	EmploymentType   *string  `json:"employment_type,omitempty" db:"employment_type"`
	EmploymentStatus *string  `json:"employment_status,omitempty" db:"employment_status"`
	DateOfHire       *string  `json:"date_of_hire,omitempty" db:"date_of_hire" kind:"date"`
	ConfirmationDate *string  `json:"confirmation_date,omitempty" db:"confirmation_date" kind:"date"`
	ProbationEndDate *string  `json:"probation_end_date,omitempty" db:"probation_end_date" kind:"date"`
	TerminationDate  *string  `json:"termination_date,omitempty" db:"termination_date" kind:"date"`
	WorkLocation     *string  `json:"work_location,omitempty" db:"work_location"`
	ManagerID        *string  `json:"manager_id,omitempty" db:"manager_id" kind:"id"`
	ReportingManager *string  `json:"reporting_manager,omitempty" db:"reporting_manager"`
	WorkPassType     *string  `json:"work_pass_type,omitempty" db:"work_pass_type"`
	WorkPassExpiry   *string  `json:"work_pass_expiry,omitempty" db:"work_pass_expiry" kind:"date"`
	IsRemote         *bool    `json:"is_remote,omitempty" db:"is_remote"`
	Skills           []string `json:"skills,omitempty" db:"skills"`
	NoticePeriodDays *float64 `json:"notice_period_days,omitempty" db:"notice_period_days"`

	// Compensation
	BasicSalary       *float64 `json:"basic_salary,omitempty" db:"basic_salary"`
	Currency          *string  `json:"currency,omitempty" db:"currency"`
	PayFrequency      *string  `json:"pay_frequency,omitempty" db:"pay_frequency"`
	BankName          *string  `json:"bank_name,omitempty" db:"bank_name"`
	BankAccountNumber *string  `json:"bank_account_number,omitempty" db:"bank_account_number"`
	AllowanceAmount   *float64 `json:"allowance_amount,omitempty" db:"allowance_amount"`
	BonusEligible     *bool    `json:"bonus_eligible,omitempty" db:"bonus_eligible"`
	OvertimeEligible  *bool    `json:"overtime_eligible,omitempty" db:"overtime_eligible"`
	EnrolledBenefits  []string `json:"enrolled_benefits,omitempty" db:"enrolled_benefits"`
	PayGroupID        *string  `json:"pay_group_id,omitempty" db:"pay_group_id" kind:"id"`

	// Statutory / compliance
	CPFContribution    *bool   `json:"cpf_contribution,omitempty" db:"cpf_contribution"`
	CPFAccountNumber   *string `json:"cpf_account_number,omitempty" db:"cpf_account_number"`
	SDLApplicable      *bool   `json:"sdl_applicable,omitempty" db:"sdl_applicable"`
	SHGFund            *string `json:"shg_fund,omitempty" db:"shg_fund"`
	TaxReferenceNumber *string `json:"tax_reference_number,omitempty" db:"tax_reference_number"`
	TaxResident        *bool   `json:"tax_resident,omitempty" db:"tax_resident"`
	PRStatus           *bool   `json:"pr_status,omitempty" db:"pr_status"`
	PRStartDate        *string `json:"pr_start_date,omitempty" db:"pr_start_date" kind:"date"`

	// Address
	AddressLine1 *string `json:"address_line1,omitempty" db:"address_line1"`
	AddressLine2 *string `json:"address_line2,omitempty" db:"address_line2"`
	City         *string `json:"city,omitempty" db:"city"`
	State        *string `json:"state,omitempty" db:"state"`
	PostalCode   *string `json:"postal_code,omitempty" db:"postal_code"`
	Country      *string `json:"country,omitempty" db:"country"`

	// Emergency contact
	EmergencyContactName         *string `json:"emergency_contact_name,omitempty" db:"emergency_contact_name"`
	EmergencyContactRelationship *string `json:"emergency_contact_relationship,omitempty" db:"emergency_contact_relationship"`
	EmergencyContactPhone        *string `json:"emergency_contact_phone,omitempty" db:"emergency_contact_phone"`
	EmergencyContactEmail        *string `json:"emergency_contact_email,omitempty" db:"emergency_contact_email"`

	// Other
	Notes        *string        `json:"notes,omitempty" db:"notes"`
	DocumentURL  *string        `json:"document_url,omitempty" db:"document_url"`
	RelatedID    *string        `json:"related_id,omitempty" db:"related_id" kind:"id"`
	CustomFields map[string]any `json:"custom_fields,omitempty" db:"custom_fields"`
}

// FieldKind is the canonical value type of an employee field.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindBool   FieldKind = "bool"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindList   FieldKind = "list"
	KindID     FieldKind = "id"
	KindObject FieldKind = "object"
)

// goTypeForKind is the Go type an optional field of a given kind must have.
var goTypeForKind = map[FieldKind]reflect.Type{
	KindText:   reflect.TypeOf((*string)(nil)),
	KindDate:   reflect.TypeOf((*string)(nil)),
	KindID:     reflect.TypeOf((*string)(nil)),
	KindBool:   reflect.TypeOf((*bool)(nil)),
	KindNumber: reflect.TypeOf((*float64)(nil)),
	KindList:   reflect.TypeOf([]string(nil)),
	KindObject: reflect.TypeOf(map[string]any(nil)),
}

// fixedColumns are the required and bookkeeping columns; they are not catalogued as optional fields.
var fixedColumns = map[string]bool{
	"id": true, "owner_id": true, "email": true, "full_name": true,
	"created_at": true, "updated_at": true,
}

var (
	fieldIndexOnce sync.Once
	fieldIndex     map[string]int
	fieldKinds     map[string]FieldKind
	optionalFields []string
)

func buildFieldIndex() {
	t := reflect.TypeOf(Employee{})
	fieldIndex = make(map[string]int, t.NumField())
	fieldKinds = make(map[string]FieldKind, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := sf.Tag.Get("db")
		if name == "" {
			continue
		}
		fieldIndex[name] = i
		if fixedColumns[name] {
			continue
		}
		optionalFields = append(optionalFields, name)
		// Text-typed fields default to text; dates and ids say so in their kind tag.
		if k := sf.Tag.Get("kind"); k != "" {
			fieldKinds[name] = FieldKind(k)
			continue
		}
		for kind, typ := range goTypeForKind {
			if typ == sf.Type && kind != KindDate && kind != KindID {
				fieldKinds[name] = kind
			}
		}
	}
}

// OptionalEmployeeFields returns the db names of every optional field, in struct order.
func OptionalEmployeeFields() []string {
	fieldIndexOnce.Do(buildFieldIndex)
	out := make([]string, len(optionalFields))
	copy(out, optionalFields)
	return out
}

// CheckFieldKind reports whether name is an employee field whose Go type matches kind.
func CheckFieldKind(name string, kind FieldKind) error {
	fieldIndexOnce.Do(buildFieldIndex)
	idx, ok := fieldIndex[name]
	if !ok || fixedColumns[name] {
		return fmt.Errorf("%w: unknown employee field %q", ErrBadRequest, name)
	}
	want, ok := goTypeForKind[kind]
	if !ok {
		return fmt.Errorf("%w: unknown field kind %q", ErrBadRequest, kind)
	}
	got := reflect.TypeOf(Employee{}).Field(idx).Type
	if got != want {
		return fmt.Errorf("%w: field %q has type %s, kind %s requires %s", ErrBadRequest, name, got, kind, want)
	}
	if declared := fieldKinds[name]; declared != kind {
		return fmt.Errorf("%w: field %q is a %s field, not %s", ErrBadRequest, name, declared, kind)
	}
	return nil
}

// EmployeeFieldKind returns the declared kind of an optional employee field.
func EmployeeFieldKind(name string) (FieldKind, bool) {
	fieldIndexOnce.Do(buildFieldIndex)
	kind, ok := fieldKinds[name]
	return kind, ok
}

// Get returns the value of the named field, or nil if the field is absent or unknown.
// Required fields are returned as plain strings.
func (e *Employee) Get(name string) any {
	fieldIndexOnce.Do(buildFieldIndex)
	idx, ok := fieldIndex[name]
	if !ok {
		return nil
	}
	v := reflect.ValueOf(e).Elem().Field(idx)
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// Set assigns an already-normalized value to the named optional field.
// A nil value clears the field. The value must have the field's Go type
// (string, bool, float64, []string or map[string]any) or Set returns an error.
func (e *Employee) Set(name string, value any) error {
	fieldIndexOnce.Do(buildFieldIndex)
	idx, ok := fieldIndex[name]
	if !ok || fixedColumns[name] {
		return fmt.Errorf("%w: unknown employee field %q", ErrBadRequest, name)
	}
	f := reflect.ValueOf(e).Elem().Field(idx)
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	if f.Kind() == reflect.Pointer {
		if v.Type() != f.Type().Elem() {
			return fmt.Errorf("%w: field %q expects %s, got %T", ErrBadRequest, name, f.Type().Elem(), value)
		}
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		f.Set(p)
		return nil
	}
	if v.Type() != f.Type() {
		return fmt.Errorf("%w: field %q expects %s, got %T", ErrBadRequest, name, f.Type(), value)
	}
	f.Set(v)
	return nil
}

// FieldPointer returns a pointer to the named struct field, for row scanning.
func (e *Employee) FieldPointer(name string) (any, bool) {
	fieldIndexOnce.Do(buildFieldIndex)
	idx, ok := fieldIndex[name]
	if !ok {
		return nil, false
	}
	return reflect.ValueOf(e).Elem().Field(idx).Addr().Interface(), true
}

// DisplayName returns the explicit full name, or one derived from first and last name.
func (e *Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	var first, last string
	if e.FirstName != nil {
		first = *e.FirstName
	}
	if e.LastName != nil {
		last = *e.LastName
	}
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}
