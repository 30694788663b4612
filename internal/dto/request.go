package dto

type CreateReservationRequest struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	Duration       float64 `json:"duration"`
	NumberOfPeople int     `json:"number_of_people"`
	Bay            string  `json:"bay,omitempty"`
	SourceChannel  string  `json:"source_channel"`
	ExternalKey    string  `json:"external_key,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	// When true the core resolves/creates a customer before allocating
	MatchCustomer  bool `json:"match_customer"`
	AllowFuzzyName bool `json:"allow_fuzzy_name"`
}

type CancelReservationRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

type MatchCustomerRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	AllowFuzzyName bool   `json:"allow_fuzzy_name"`
}
