package models

// ContactForm is a general inquiry submitted from one of the site forms.
type ContactForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`
	PropertyType string `json:"propertyType"`
	Timeline     string `json:"timeline"`
	Source       string `json:"source"`
}

// BuyLead is a structured buyer-intake submission from the buy landing page.
type BuyLead struct {
	Lifestyles   []string `json:"lifestyles"`
	Amenities    []string `json:"amenities"`
	PriceRange   string   `json:"priceRange"`
	Timeline     string   `json:"timeline"`
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	TextAlerts   bool     `json:"textAlerts"`
	ScheduleCall bool     `json:"scheduleCall"`
}
