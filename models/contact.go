package models

// Lead is a CRM smart-form contact submission.
type Lead struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Mobile    string `json:"mobile" binding:"required"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// TestSearchResult is one lab test or scan returned by the search endpoint.
type TestSearchResult struct {
	Name         string       `json:"name"`
	Route        string       `json:"route"`
	TemplateName TemplateName `json:"templateName"`
	Price        Price        `json:"price"`
}
