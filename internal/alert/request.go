package alert

type CreateAlertRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HelpOffer is returned to an accepted helper. The owner's phone number is
// normally private; revealing it is the whole point of accepting to help.
type HelpOffer struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
}
