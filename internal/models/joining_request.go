package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

// JoiningStatus is the lifecycle status of a joining request
type JoiningStatus string

const (
	JoiningStatusPending   JoiningStatus = "pending"
	JoiningStatusSubmitted JoiningStatus = "submitted"
	JoiningStatusApproved  JoiningStatus = "approved"
	JoiningStatusRejected  JoiningStatus = "rejected"
)

// IsValid reports whether s is a known status
func (s JoiningStatus) IsValid() bool {
	switch s {
	case JoiningStatusPending, JoiningStatusSubmitted, JoiningStatusApproved, JoiningStatusRejected:
		return true
	}
	return false
}

// Schema versions of stored joining requests
const (
	SchemaVersionLegacy  = 1 // single flat address, top-level UAN
	SchemaVersionCurrent = 2 // present/permanent address, UAN inside bank details
)

// Document field names accepted on joining form uploads
const (
	DocProfilePhoto  = "profilePhoto"
	DocIDProof       = "idProof"
	DocAddressProof  = "addressProof"
	DocTenth         = "tenthDocument"
	DocInter         = "interDocument"
	DocBTech         = "btechDocument"
	DocOfferDocument = "document"
)

// RequiredJoiningDocuments lists the uploads every joining form must carry
var RequiredJoiningDocuments = []string{
	DocProfilePhoto, DocIDProof, DocAddressProof, DocTenth, DocInter, DocBTech,
}

// ExperienceCertificateField is the upload field for the certificate of entry i
func ExperienceCertificateField(i int) string {
	return fmt.Sprintf("experienceCertificate_%d", i)
}

// Address is one postal address block
type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// IsZero reports whether no component is set
func (a Address) IsZero() bool {
	return a.Address == "" && a.City == "" && a.State == "" && a.Pincode == ""
}

// BankDetails is stored as a JSONB document
type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	IFSC          string `json:"ifsc"`
	UAN           string `json:"uan"`
}

// Value implements the driver.Valuer interface
func (b BankDetails) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements the sql.Scanner interface
func (b *BankDetails) Scan(src interface{}) error {
	return scanJSON(src, b)
}

// ExperienceEntry is one declared prior employment
type ExperienceEntry struct {
	CompanyName string  `json:"companyName"`
	Years       float64 `json:"years"`
	Certificate string  `json:"certificate"`
}

// ExperienceList is stored as a JSONB array
type ExperienceList []ExperienceEntry

// Value implements the driver.Valuer interface
func (e ExperienceList) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface
func (e *ExperienceList) Scan(src interface{}) error {
	return scanJSON(src, e)
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

// JoiningRequest is the mutable onboarding form tied to one candidate
type JoiningRequest struct {
	ID          uuid.UUID `json:"_id" db:"id"`
	CandidateID uuid.UUID `json:"candidateId" db:"candidate_id"`

	// Copied from the candidate when joining details are sent
	FullName string `json:"fullName" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone" db:"phone"`
	Practice string `json:"practice" db:"practice"`
	Position string `json:"position" db:"position"`

	DateOfBirth NullTime `json:"dateOfBirth" db:"date_of_birth"`

	PresentAddressLine   string `json:"presentAddress" db:"present_address"`
	PresentCity          string `json:"presentCity" db:"present_city"`
	PresentState         string `json:"presentState" db:"present_state"`
	PresentPincode       string `json:"presentPincode" db:"present_pincode"`
	PermanentAddressLine string `json:"permanentAddress" db:"permanent_address"`
	PermanentCity        string `json:"permanentCity" db:"permanent_city"`
	PermanentState       string `json:"permanentState" db:"permanent_state"`
	PermanentPincode     string `json:"permanentPincode" db:"permanent_pincode"`

	// Legacy single address block
	LegacyAddress string `json:"address,omitempty" db:"address"`
	LegacyCity    string `json:"city,omitempty" db:"city"`
	LegacyState   string `json:"state,omitempty" db:"state"`
	LegacyPincode string `json:"pincode,omitempty" db:"pincode"`

	EmergencyContactName     string `json:"emergencyContactName" db:"emergency_contact_name"`
	EmergencyContactPhone    string `json:"emergencyContactPhone" db:"emergency_contact_phone"`
	EmergencyContactRelation string `json:"emergencyContactRelation" db:"emergency_contact_relation"`

	SelfDescription string `json:"selfDescription" db:"self_description"`
	ProfilePhoto    string `json:"profilePhoto" db:"profile_photo"`
	IDProof         string `json:"idProof" db:"id_proof"`
	AddressProof    string `json:"addressProof" db:"address_proof"`

	BankDetails BankDetails `json:"bankDetails" db:"bank_details"`
	LegacyUAN   string      `json:"-" db:"uan"`

	TenthGrade    string `json:"tenthGrade" db:"tenth_grade"`
	TenthDocument string `json:"tenthDocument" db:"tenth_document"`
	InterGrade    string `json:"interGrade" db:"inter_grade"`
	InterDocument string `json:"interDocument" db:"inter_document"`
	BTechGrade    string `json:"btechGrade" db:"btech_grade"`
	BTechDocument string `json:"btechDocument" db:"btech_document"`

	Experience ExperienceList `json:"experience" db:"experience"`

	Status        JoiningStatus `json:"status" db:"status"`
	SubmittedAt   NullTime      `json:"submittedAt" db:"submitted_at"`
	ReviewedAt    NullTime      `json:"reviewedAt" db:"reviewed_at"`
	ReviewedBy    uuid.NullUUID `json:"reviewedBy" db:"reviewed_by"`
	ReviewRemarks string        `json:"reviewRemarks" db:"review_remarks"`

	SchemaVersion int       `json:"schemaVersion" db:"schema_version"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// PresentAddress returns the present address block
func (jr *JoiningRequest) PresentAddress() Address {
	return Address{jr.PresentAddressLine, jr.PresentCity, jr.PresentState, jr.PresentPincode}
}

// PermanentAddress returns the permanent address block
func (jr *JoiningRequest) PermanentAddress() Address {
	return Address{jr.PermanentAddressLine, jr.PermanentCity, jr.PermanentState, jr.PermanentPincode}
}

// LegacyAddressBlock returns the single address block of schema version 1
func (jr *JoiningRequest) LegacyAddressBlock() Address {
	return Address{jr.LegacyAddress, jr.LegacyCity, jr.LegacyState, jr.LegacyPincode}
}

// ResidentialAddress is the address copied onto the employee record.
// Present address wins; the legacy block is read only when it is absent.
func (jr *JoiningRequest) ResidentialAddress() Address {
	if present := jr.PresentAddress(); !present.IsZero() {
		return present
	}
	return jr.LegacyAddressBlock()
}

// Normalize upgrades a record read in the legacy layout to the current one.
// It only fills empty current-layout fields and never drops legacy data.
func (jr *JoiningRequest) Normalize() {
	if jr.PresentAddress().IsZero() && !jr.LegacyAddressBlock().IsZero() {
		jr.PresentAddressLine = jr.LegacyAddress
		jr.PresentCity = jr.LegacyCity
		jr.PresentState = jr.LegacyState
		jr.PresentPincode = jr.LegacyPincode
	}
	if jr.BankDetails.UAN == "" && jr.LegacyUAN != "" {
		jr.BankDetails.UAN = jr.LegacyUAN
	}
	if jr.Experience == nil {
		jr.Experience = ExperienceList{}
	}
	if jr.SchemaVersion < SchemaVersionCurrent {
		jr.SchemaVersion = SchemaVersionCurrent
	}
}

// Stage maps the request status onto the onboarding state machine
func (jr *JoiningRequest) Stage() Stage {
	switch jr.Status {
	case JoiningStatusSubmitted:
		return StageFormSubmitted
	case JoiningStatusApproved:
		return StageApproved
	case JoiningStatusRejected:
		return StageRejected
	default:
		return StageCredentialsIssued
	}
}

// JoiningRequestDetail is a joining request with its originating candidate
type JoiningRequestDetail struct {
	*JoiningRequest
	Candidate *Candidate `json:"candidate,omitempty"`
}

// JoiningFormFields are the text fields of POST /api/employee/submit-joining-form
type JoiningFormFields struct {
	DateOfBirth              string `form:"dateOfBirth"`
	PresentAddress           string `form:"presentAddress"`
	PresentCity              string `form:"presentCity"`
	PresentState             string `form:"presentState"`
	PresentPincode           string `form:"presentPincode"`
	PermanentAddress         string `form:"permanentAddress"`
	PermanentCity            string `form:"permanentCity"`
	PermanentState           string `form:"permanentState"`
	PermanentPincode         string `form:"permanentPincode"`
	EmergencyContactName     string `form:"emergencyContactName"`
	EmergencyContactPhone    string `form:"emergencyContactPhone"`
	EmergencyContactRelation string `form:"emergencyContactRelation"`
	SelfDescription          string `form:"selfDescription"`
	BankAccountNumber        string `form:"bankAccountNumber"`
	BankName                 string `form:"bankName"`
	BankIFSC                 string `form:"bankIFSC"`
	UAN                      string `form:"uan"` // repeated keys collapse to the first value
	TenthGrade               string `form:"tenthGrade"`
	InterGrade               string `form:"interGrade"`
	BTechGrade               string `form:"btechGrade"`
	Experience               string `form:"experience"` // JSON array
}

// SubmitJoiningFormInput is the normalized submission handed to the workflow engine
type SubmitJoiningFormInput struct {
	JoiningFormFields
	Files map[string]*validator.FileUpload
}

// EditJoiningDetailsInput carries only the fields HR supplied; nil means untouched
type EditJoiningDetailsInput struct {
	DateOfBirth              *string
	PresentAddress           *string
	PresentCity              *string
	PresentState             *string
	PresentPincode           *string
	PermanentAddress         *string
	PermanentCity            *string
	PermanentState           *string
	PermanentPincode         *string
	EmergencyContactName     *string
	EmergencyContactPhone    *string
	EmergencyContactRelation *string
	BankAccountNumber        *string
	BankName                 *string
	BankIFSC                 *string
	UAN                      *string
	TenthGrade               *string
	InterGrade               *string
	BTechGrade               *string
	Experience               *string
	Files                    map[string]*validator.FileUpload
}

// ReviewRequest is the body of POST /api/admin/joining-requests/:id/review
type ReviewRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}
