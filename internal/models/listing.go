package models

// Listing is a marketplace post. Seller display fields are denormalized at
// creation time, as the legacy listings.json records were.
type Listing struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Category       string   `json:"category"`
	Type           string   `json:"type"`
	Urgency        string   `json:"urgency"`
	Location       string   `json:"location"`
	Availability   string   `json:"availability"`
	Images         []string `json:"images"`
	SellerID       int64    `json:"sellerId"`
	SellerName     string   `json:"sellerName"`
	SellerRating   float64  `json:"sellerRating"`
	SellerAvatar   string   `json:"sellerAvatar"`
	Status         string   `json:"status"`
	PostedDate     string   `json:"postedDate"`
	RelatedCourses []string `json:"relatedCourses,omitempty"`
}
