package store

import (
	"context"

	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// Seed populates an empty store with the demo account and sample listings,
// mirroring the data the legacy server created on first run. Stores that
// already hold users are left untouched, so existing data files win.
func Seed(ctx context.Context, ds DataStore) error {
	count, err := ds.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := &models.User{
		Name:     "Demo Student",
		Email:    "demo@jiit.ac.in",
		Password: "demo123",
		Rating:   4.5,
		Avatar:   "D",
		Intent:   "buy",
		Year:     "2",
		Branch:   "CSE",
		Courses:  []string{"CS102", "CS204"},
	}
	if _, err := ds.CreateUser(ctx, demo); err != nil {
		return err
	}

	samples := []models.Listing{
		{
			Title:          "C++ Programming Tutor - One-on-One Sessions",
			Description:    "Helping with CS102 assignments and concepts. Available for doubt clearing sessions. 2 years of teaching experience.",
			Price:          200,
			Category:       "Academic",
			Type:           "Offering",
			Urgency:        "Low Urgency",
			Location:       "Boys Hostel, Block C",
			Availability:   "Weekends, 10 AM - 6 PM",
			Images:         []string{},
			SellerID:       1,
			SellerName:     "Rahul Mehta",
			SellerRating:   4.5,
			SellerAvatar:   "R",
			Status:         "active",
			PostedDate:     "2026-01-31",
			RelatedCourses: []string{"CS102"},
		},
		{
			Title:        "Introduction to Algorithms - 3rd Edition",
			Description:  "Well-maintained book, minimal highlighting. Perfect for CS204. Only used for one semester.",
			Price:        450,
			Category:     "Books",
			Type:         "Selling",
			Urgency:      "Medium",
			Location:     "Girls Hostel, Block A",
			Availability: "Evenings after 5 PM",
			Images:       []string{},
			SellerID:     2,
			SellerName:   "Priya Sharma",
			SellerRating: 4.8,
			SellerAvatar: "P",
			Status:       "sold",
			PostedDate:   "2026-01-28",
		},
		{
			Title:        "Digital Electronics Notes + Previous Year Papers",
			Description:  "Comprehensive notes for EE201. Includes solved previous year questions. Helped me score 9 CGPA!",
			Price:        100,
			Category:     "Academic",
			Type:         "Selling",
			Urgency:      "Low Urgency",
			Location:     "Boys Hostel, Block A",
			Availability: "After 6 PM",
			Images:       []string{},
			SellerID:     3,
			SellerName:   "Rohan Shah",
			SellerRating: 4.8,
			SellerAvatar: "R",
			Status:       "active",
			PostedDate:   "2026-01-30",
		},
	}
	for i := range samples {
		if _, err := ds.CreateListing(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}
