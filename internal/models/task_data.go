package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TaskData is the step-specific payload of a lead task. Each playbook step
// has its own shape; every field is optional because admins fill them in
// over time.
type TaskData interface {
	TaskType() TaskType
}

type FirstContactData struct {
	ClientName    string `json:"client_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ContactMethod string `json:"contact_method,omitempty"` // phone|telegram|email|whatsapp
	Reached       *bool  `json:"reached,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type QualificationData struct {
	BudgetMin       *int64 `json:"budget_min,omitempty"`
	BudgetMax       *int64 `json:"budget_max,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"` // cash|credit|leasing|trade_in
	PurchaseHorizon string `json:"purchase_horizon,omitempty"`
	DecisionMaker   *bool  `json:"decision_maker,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type CarPreferencesData struct {
	PreferredBrands []string `json:"preferred_brands,omitempty"`
	BodyType        string   `json:"body_type,omitempty"`
	Transmission    string   `json:"transmission,omitempty"`
	FuelType        string   `json:"fuel_type,omitempty"`
	YearFrom        *int     `json:"year_from,omitempty"`
	MaxMileage      *int     `json:"max_mileage,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type SendOffersData struct {
	OfferedCarIDs []int64 `json:"offered_car_ids,omitempty"`
	SentVia       string  `json:"sent_via,omitempty"`
	ClientEmail   string  `json:"client_email,omitempty"`
	Feedback      string  `json:"feedback,omitempty"`
}

type SendCalculationData struct {
	CarPrice     *int64 `json:"car_price,omitempty"`
	DownPayment  *int64 `json:"down_payment,omitempty"`
	TermMonths   *int   `json:"term_months,omitempty"`
	MonthlyRate  string `json:"monthly_rate,omitempty"`
	ClientEmail  string `json:"client_email,omitempty"`
	BankOrLeaser string `json:"bank_or_leaser,omitempty"`
}

type ScheduleMeetingData struct {
	MeetingDate *time.Time `json:"meeting_date,omitempty"`
	Location    string     `json:"location,omitempty"`
	ClientPhone string     `json:"client_phone,omitempty"`
	TestDrive   *bool      `json:"test_drive,omitempty"`
}

type SendContractData struct {
	ContractNumber string     `json:"contract_number,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ClientEmail    string     `json:"client_email,omitempty"`
	Signed         *bool      `json:"signed,omitempty"`
}

type GetPrepaymentData struct {
	Amount     *int64     `json:"amount,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	Method     string     `json:"method,omitempty"`
}

type ConfirmDealData struct {
	FinalPrice   *int64     `json:"final_price,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	CarID        *int64     `json:"car_id,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

type CustomTaskData struct {
	Notes string `json:"notes,omitempty"`
}

func (FirstContactData) TaskType() TaskType    { return TaskTypeFirstContact }
func (QualificationData) TaskType() TaskType   { return TaskTypeQualifyLead }
func (CarPreferencesData) TaskType() TaskType  { return TaskTypeCarPreferences }
func (SendOffersData) TaskType() TaskType      { return TaskTypeSendOffers }
func (SendCalculationData) TaskType() TaskType { return TaskTypeSendCalculation }
func (ScheduleMeetingData) TaskType() TaskType { return TaskTypeScheduleMeeting }
func (SendContractData) TaskType() TaskType    { return TaskTypeSendContract }
func (GetPrepaymentData) TaskType() TaskType   { return TaskTypeGetPrepayment }
func (ConfirmDealData) TaskType() TaskType     { return TaskTypeConfirmDeal }
func (CustomTaskData) TaskType() TaskType      { return TaskTypeCustom }

// EmptyTaskData returns a zero payload of the shape that belongs to t.
func EmptyTaskData(t TaskType) (TaskData, error) {
	switch t {
	case TaskTypeFirstContact:
		return &FirstContactData{}, nil
	case TaskTypeQualifyLead:
		return &QualificationData{}, nil
	case TaskTypeCarPreferences:
		return &CarPreferencesData{}, nil
	case TaskTypeSendOffers:
		return &SendOffersData{}, nil
	case TaskTypeSendCalculation:
		return &SendCalculationData{}, nil
	case TaskTypeScheduleMeeting:
		return &ScheduleMeetingData{}, nil
	case TaskTypeSendContract:
		return &SendContractData{}, nil
	case TaskTypeGetPrepayment:
		return &GetPrepaymentData{}, nil
	case TaskTypeConfirmDeal:
		return &ConfirmDealData{}, nil
	case TaskTypeCustom:
		return &CustomTaskData{}, nil
	}
	return nil, fmt.Errorf("unknown task type %q", t)
}

// DecodeTaskData parses raw JSON into the payload shape of t. Empty input
// yields an empty payload. Unknown fields are rejected so a payload sent
// for the wrong step is caught early.
func DecodeTaskData(t TaskType, raw []byte) (TaskData, error) {
	data, err := EmptyTaskData(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		return nil, fmt.Errorf("decode %s task data: %w", t, err)
	}
	return data, nil
}

// EncodeTaskData serialises a payload for storage. A nil payload is stored
// as an empty object.
func EncodeTaskData(d TaskData) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// MergeTaskData overlays the fields present in raw onto a copy of current,
// so a payload can be filled in over several edits. current is not
// modified.
func MergeTaskData(t TaskType, current TaskData, raw []byte) (TaskData, error) {
	base, err := EncodeTaskData(current)
	if err != nil {
		return nil, err
	}
	merged, err := DecodeTaskData(t, base)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return merged, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("decode %s task data: %w", t, err)
	}
	return merged, nil
}
